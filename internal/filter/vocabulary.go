package filter

import (
	"regexp"
	"strings"
)

// juniorTerms signal entry-level roles.
var juniorTerms = []string{
	"intern", "interns", "internship", "internships",
	"junior", "jr",
	`entry[\s-]level`,
	"graduate", "new grad",
	"trainee",
}

// nonUSTerms are regions, countries and cities that place a role outside the US.
var nonUSTerms = []string{
	// regions and blocs
	"europe", "european", "eu", "eea", "emea", "apac", "asia", "asia pacific", "latam",
	"latin america", "south america", "central america", "africa", "middle east", "mena",
	"oceania", "nordics", "scandinavia", "dach", "benelux", "balkans",
	// countries
	"uk", "united kingdom", "england", "scotland", "wales", "ireland", "germany", "france",
	"spain", "portugal", "italy", "netherlands", "belgium", "switzerland", "austria",
	"poland", "ukraine", "romania", "bulgaria", "serbia", "croatia", "czech republic",
	"czechia", "hungary", "greece", "sweden", "norway", "denmark", "finland", "estonia",
	"latvia", "lithuania", "cyprus", "malta", "gibraltar", "turkey", "israel", "uae",
	"united arab emirates", "saudi arabia", "qatar", "india", "pakistan", "bangladesh",
	"singapore", "malaysia", "indonesia", "philippines", "vietnam", "thailand", "taiwan",
	"hong kong", "china", "japan", "korea", "south korea", "australia", "new zealand",
	"canada", "mexico", "brazil", "argentina", "colombia", "chile", "peru", "nigeria",
	"kenya", "south africa", "egypt", "cayman islands", "bahamas", "bermuda",
	// cities
	"london", "manchester", "berlin", "munich", "hamburg", "paris", "madrid", "barcelona",
	"lisbon", "amsterdam", "rotterdam", "brussels", "zurich", "zug", "geneva", "vienna",
	"warsaw", "krakow", "kyiv", "kiev", "bucharest", "sofia", "prague", "budapest",
	"athens", "stockholm", "oslo", "copenhagen", "helsinki", "tallinn", "vilnius",
	"riga", "istanbul", "tel aviv", "dubai", "abu dhabi", "bangalore", "bengaluru",
	"mumbai", "delhi", "hyderabad", "pune", "tokyo", "seoul", "shanghai", "beijing",
	"shenzhen", "taipei", "kuala lumpur", "jakarta", "manila", "ho chi minh", "hanoi",
	"bangkok", "sydney", "melbourne", "auckland", "toronto", "vancouver", "montreal",
	"mexico city", "sao paulo", "buenos aires", "bogota", "lagos", "nairobi", "cape town",
}

// usTerms identify a US presence in a location string. The bare code US is
// matched separately and case-sensitively, so the pronoun "us" is not a hit.
var usTerms = []string{
	"usa", `u\.s\.?`, `u\.s\.a\.?`, "united states", "united states of america",
	// cities
	"new york", "nyc", "brooklyn", "san francisco", "sf", "bay area", "silicon valley",
	"los angeles", "seattle", "austin", "boston", "chicago", "denver", "miami",
	"atlanta", "dallas", "houston", "washington", `washington,?\s*d\.?c\.?`, "portland",
	"san diego", "san jose", "palo alto", "mountain view", "menlo park", "oakland",
	"philadelphia", "phoenix", "salt lake city", "nashville", "raleigh", "pittsburgh",
	"minneapolis", "detroit", "las vegas", "charlotte", "columbus", "baltimore",
	// states
	"california", "texas", "florida", "new jersey", "massachusetts", "colorado",
	"illinois", "oregon", "utah", "virginia", "north carolina", "south carolina",
	"arizona", "pennsylvania", "ohio", "michigan", "minnesota", "tennessee", "maryland",
	"wisconsin", "nevada", "connecticut", "indiana", "missouri", "kentucky", "delaware",
	"wyoming", "montana", "idaho", "alaska", "hawaii",
}

// usStateCodes are matched case-sensitively and only after a comma, as in
// "Austin, TX". DE, IN, OR and ME are left out: they collide with country
// codes or ordinary words.
var usStateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DC", "FL", "GA", "HI", "IA", "ID",
	"IL", "KS", "KY", "LA", "MA", "MD", "MI", "MN", "MO", "MS", "MT", "NC",
	"ND", "NE", "NH", "NJ", "NM", "NV", "NY", "OH", "OK", "PA", "RI", "SC", "SD",
	"TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV", "WY",
}

var remoteTerms = []string{
	"remote", "fully remote", "remote-first", "global", "globally", "worldwide",
	"anywhere", "distributed", "work from home", "wfh",
}

var (
	juniorPattern    = wordPattern(juniorTerms)
	nonUSPattern     = wordPattern(nonUSTerms)
	usPattern        = wordPattern(usTerms)
	usCodePattern    = regexp.MustCompile(`(?:^|[^A-Za-z0-9])US(?:[^A-Za-z0-9]|$)`)
	usStatePattern   = regexp.MustCompile(`,\s*(?:` + strings.Join(usStateCodes, "|") + `)(?:[^A-Za-z]|$)`)
	remotePattern    = wordPattern(remoteTerms)
	outsideUSPattern = regexp.MustCompile(`(?i)\boutside\s+(?:of\s+)?(?:the\s+)?(?:us|usa|u\.s\.a?\.?|united\s+states)(?:[^a-z]|$)`)
	northAmerica     = regexp.MustCompile(`(?i)\bnorth\s+america\b`)
)

// wordPattern compiles a case-insensitive alternation that only matches on
// word boundaries. Terms may contain regex fragments.
func wordPattern(terms []string) *regexp.Regexp {
	alts := make([]string, len(terms))
	for i, t := range terms {
		alts[i] = strings.ReplaceAll(t, " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:` + strings.Join(alts, "|") + `)(?:[^a-z0-9]|$)`)
}
