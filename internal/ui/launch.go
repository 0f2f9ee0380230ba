package ui

import (
	"fmt"
	"os"

	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/core"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var originalStdout = os.Stdout
var originalStderr = os.Stderr

func restoreStdout() {
	os.Stdout = originalStdout
	os.Stderr = originalStderr
}

type UI struct{}

func NewUI() *UI {
	return &UI{}
}

// Launch runs the interactive watch screen until the user quits. Logs are
// redirected to the log file since the terminal belongs to the UI.
func (u *UI) Launch(conf *config.Config) error {
	log := logger.New()

	level := zerolog.GlobalLevel()

	if level != zerolog.Disabled {
		logFile, ok := viper.Get("log-file").(string)

		if !ok || logFile == "" {
			log.Error().Err(
				fmt.Errorf("invalid log file path: %s", logFile),
			).Msg("")
			log.Info().Msg("disabling logs")
			zerolog.SetGlobalLevel(zerolog.Disabled)
		} else if err := logger.GlobalSetLogFile(logFile); err != nil {
			log.Error().Err(err).Msg("")
			log.Info().Msg("disabling logs")
			zerolog.SetGlobalLevel(zerolog.Disabled)
		}
	}

	appCore, err := core.CreateNewAppCore(conf)

	if err != nil {
		return err
	}

	uiApp := newApp(appCore)

	os.Stdout, _ = os.Open(os.DevNull)
	os.Stderr, _ = os.Open(os.DevNull)

	defer restoreStdout()

	return uiApp.run()
}
