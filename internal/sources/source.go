// Package sources implements the job-board adapters. Each adapter fetches one
// external board, maps listings to types.RawJob and applies the shared
// title/location filter before returning them.
package sources

import (
	"context"
	"sort"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// Adapter scrapes one source.
//
// Per-page and per-category failures are logged and skipped inside Scrape. A
// missing browser makes Scrape return an empty result without error. Any
// error Scrape does return fails the whole run for that source.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context) ([]types.RawJob, types.SkipStats, error)
}

// Deps carries everything an adapter constructor may need.
type Deps struct {
	HTTP     *fetch.Client
	Launcher fetch.Launcher
	Config   *config.Config
	Logger   *zap.SugaredLogger
}

// logger returns a named child of Deps.Logger, or of the global logger.
func (d Deps) logger(name string) *zap.SugaredLogger {
	if d.Logger != nil {
		return d.Logger.Named(name)
	}
	return zap.S().Named("sources").Named(name)
}

// Constructor builds an adapter from its dependencies.
type Constructor func(Deps) Adapter

// Registry maps source names to adapter constructors.
type Registry map[string]Constructor

// Source names
const (
	CryptoJobsList     = "cryptojobslist"
	CryptocurrencyJobs = "cryptocurrencyjobs"
	Web3Career         = "web3career"
	Remote3            = "remote3"
)

// DefaultRegistry returns the registry of every built-in source.
func DefaultRegistry() Registry {
	return Registry{
		CryptoJobsList:     NewCryptoJobsList,
		CryptocurrencyJobs: NewCryptocurrencyJobs,
		Web3Career:         NewWeb3Career,
		Remote3:            NewRemote3,
	}
}

// Names returns the registered source names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the adapter registered under name.
func (r Registry) New(name string, deps Deps) (Adapter, bool) {
	ctor, ok := r[name]
	if !ok {
		return nil, false
	}
	return ctor(deps), true
}
