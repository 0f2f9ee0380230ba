package core

import (
	"errors"
	"os"

	"github.com/robgonnella/plcscout/internal/classifier"
	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/robgonnella/plcscout/internal/util"
)

// LoadConfig loads the configuration file at path, using defaults when the
// file does not exist. When no network ranges are configured the network
// this machine routes through is used.
func LoadConfig(path string) (*config.Config, error) {
	log := logger.New()

	conf := config.Default()

	if path != "" {
		loaded, err := config.New(path)

		switch {
		case err == nil:
			conf = loaded
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("path", path).Msg("no config file found, using defaults")
		default:
			return nil, err
		}
	}

	if len(conf.NetworkRanges) == 0 {
		info, err := util.GetNetworkInfo()

		if err != nil {
			return nil, err
		}

		log.Info().Str("cidr", info.Cidr).Msg("no network ranges configured, using default network")

		conf.NetworkRanges = []string{info.Cidr}
	}

	return conf, nil
}

// createClassifierRepo returns the sqlite cache when a database is
// configured and an in memory cache otherwise
func createClassifierRepo(conf *config.Config) (classifier.Repo, error) {
	if conf.CacheDatabase == "" {
		return classifier.NewMemoryRepo(), nil
	}

	db, err := util.GetSqliteDbConnection(conf.CacheDatabase, &classifier.CacheEntryModel{})

	if err != nil {
		return nil, err
	}

	return classifier.NewSqliteRepo(db), nil
}

// CreateNewAppCore creates and returns a new instance of *core.Core
func CreateNewAppCore(conf *config.Config, opts ...discovery.Option) (*Core, error) {
	repo, err := createClassifierRepo(conf)

	if err != nil {
		return nil, err
	}

	events := event.NewEventManager()

	opts = append([]discovery.Option{discovery.WithEventManager(events)}, opts...)

	orchestrator := discovery.NewOrchestrator(
		classifier.New(repo),
		discovery.NewScanState(),
		opts...,
	)

	return New(conf, orchestrator, events), nil
}
