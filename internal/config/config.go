// Package config provides configuration loading and validation for the CLI.
// Values come from the environment (optionally seeded from a .env file by main).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config is the complete runtime configuration.
type Config struct {
	LogLevel    string   `envconfig:"JOB_RADAR_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	DatabaseURL string   `envconfig:"DATABASE_URL" default:""`
	RedisURL    string   `envconfig:"REDIS_URL" default:""`
	Sources     []string `envconfig:"JOB_RADAR_SOURCES" default:"cryptojobslist,cryptocurrencyjobs,web3career,remote3" validate:"min=1,dive,required"`

	HTTP     HTTPConfig
	Browser  BrowserConfig
	Judge    JudgeConfig
	Schedule ScheduleConfig

	CryptoJobsList     CryptoJobsListConfig
	CryptocurrencyJobs CryptocurrencyJobsConfig
	Web3Career         Web3CareerConfig
	Remote3            Remote3Config
}

// HTTPConfig configures the plain HTTP transport.
type HTTPConfig struct {
	UserAgent string        `envconfig:"JOB_RADAR_HTTP_USER_AGENT" default:""`
	Timeout   time.Duration `envconfig:"JOB_RADAR_HTTP_TIMEOUT" default:"30s" validate:"min=1s"`
}

// BrowserConfig configures the headless browser used by the rendered boards.
type BrowserConfig struct {
	ExecPath          string        `envconfig:"JOB_RADAR_CHROME_PATH" default:""`
	UserAgent         string        `envconfig:"JOB_RADAR_BROWSER_USER_AGENT" default:""`
	NavigationTimeout time.Duration `envconfig:"JOB_RADAR_BROWSER_NAV_TIMEOUT" default:"45s" validate:"min=1s"`
	ActionTimeout     time.Duration `envconfig:"JOB_RADAR_BROWSER_ACTION_TIMEOUT" default:"20s" validate:"min=1s"`
}

// JudgeConfig configures the scoring judge.
type JudgeConfig struct {
	APIKey      string        `envconfig:"GEMINI_API_KEY" default:""`
	Tier        string        `envconfig:"JOB_RADAR_JUDGE_TIER" default:"standard" validate:"oneof=lite standard advanced"`
	Model       string        `envconfig:"JOB_RADAR_JUDGE_MODEL" default:""`
	Attempts    int           `envconfig:"JOB_RADAR_JUDGE_ATTEMPTS" default:"3" validate:"min=1,max=10"`
	BaseDelay   time.Duration `envconfig:"JOB_RADAR_JUDGE_BASE_DELAY" default:"2s"`
	BatchLimit  int           `envconfig:"JOB_RADAR_SCORE_LIMIT" default:"50" validate:"min=1"`
	ProfilePath string        `envconfig:"JOB_RADAR_PROFILE_PATH" default:""`
}

// ScheduleConfig configures the long-running schedule command.
type ScheduleConfig struct {
	Cron       string        `envconfig:"JOB_RADAR_CRON" default:"0 */6 * * *" validate:"required"`
	OpsAddress string        `envconfig:"JOB_RADAR_OPS_ADDRESS" default:":9090" validate:"required"`
	LockKey    string        `envconfig:"JOB_RADAR_LOCK_KEY" default:"job-radar:cycle" validate:"required"`
	LockTTL    time.Duration `envconfig:"JOB_RADAR_LOCK_TTL" default:"2h" validate:"min=1m"`
	ScoreLimit int           `envconfig:"JOB_RADAR_SCHEDULE_SCORE_LIMIT" default:"100" validate:"min=0"`
	RunOnStart bool          `envconfig:"JOB_RADAR_RUN_ON_START" default:"false"`
}

// CryptoJobsListConfig configures the category-based rendered board.
type CryptoJobsListConfig struct {
	BaseURL          string        `envconfig:"JOB_RADAR_CJL_BASE_URL" default:"https://cryptojobslist.com" validate:"url"`
	Categories       []string      `envconfig:"JOB_RADAR_CJL_CATEGORIES" default:"engineering,developer,smart-contract,backend,full-stack" validate:"min=1"`
	SelectorWait     time.Duration `envconfig:"JOB_RADAR_CJL_SELECTOR_WAIT" default:"15s"`
	ChallengeWait    time.Duration `envconfig:"JOB_RADAR_CJL_CHALLENGE_WAIT" default:"20s"`
	ScrollIterations int           `envconfig:"JOB_RADAR_CJL_SCROLL_ITERATIONS" default:"10" validate:"min=0"`
	ScrollPause      time.Duration `envconfig:"JOB_RADAR_CJL_SCROLL_PAUSE" default:"1500ms"`
	CategoryDelay    time.Duration `envconfig:"JOB_RADAR_CJL_CATEGORY_DELAY" default:"3s"`
}

// CryptocurrencyJobsConfig configures the single-page rendered board.
type CryptocurrencyJobsConfig struct {
	URL              string        `envconfig:"JOB_RADAR_CCJ_URL" default:"https://cryptocurrencyjobs.co/engineering/" validate:"url"`
	SelectorWait     time.Duration `envconfig:"JOB_RADAR_CCJ_SELECTOR_WAIT" default:"15s"`
	ScrollIterations int           `envconfig:"JOB_RADAR_CCJ_SCROLL_ITERATIONS" default:"15" validate:"min=0"`
	ScrollPause      time.Duration `envconfig:"JOB_RADAR_CCJ_SCROLL_PAUSE" default:"1500ms"`
}

// Web3CareerConfig configures the static paginated board.
type Web3CareerConfig struct {
	BaseURL    string        `envconfig:"JOB_RADAR_W3C_BASE_URL" default:"https://web3.career" validate:"url"`
	Categories []string      `envconfig:"JOB_RADAR_W3C_CATEGORIES" default:"backend-jobs,smart-contract-jobs,golang-jobs,rust-jobs,full-stack-jobs" validate:"min=1"`
	MaxPages   int           `envconfig:"JOB_RADAR_W3C_MAX_PAGES" default:"5" validate:"min=1"`
	PageDelay  time.Duration `envconfig:"JOB_RADAR_W3C_PAGE_DELAY" default:"1500ms"`
}

// Remote3Config configures the JSON API source.
type Remote3Config struct {
	APIURL       string        `envconfig:"JOB_RADAR_R3_API_URL" default:"https://api.remote3.co/api/v1/jobs" validate:"url"`
	SiteURL      string        `envconfig:"JOB_RADAR_R3_SITE_URL" default:"https://remote3.co/web3-jobs" validate:"url"`
	Roles        []string      `envconfig:"JOB_RADAR_R3_ROLES" default:"engineering,developer,devops,security" validate:"min=1"`
	PageSize     int           `envconfig:"JOB_RADAR_R3_PAGE_SIZE" default:"50" validate:"min=1,max=200"`
	MaxPages     int           `envconfig:"JOB_RADAR_R3_MAX_PAGES" default:"10" validate:"min=1"`
	MinSeniority int           `envconfig:"JOB_RADAR_R3_MIN_SENIORITY" default:"2" validate:"min=0"`
	PageDelay    time.Duration `envconfig:"JOB_RADAR_R3_PAGE_DELAY" default:"1s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is not set")
	}
	return nil
}
