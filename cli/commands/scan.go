package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/core"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/robgonnella/plcscout/internal/util"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	ranges      []string
	protocols   []string
	output      string
	concurrency int
	delay       time.Duration
	timeout     time.Duration
	prefilter   string
	saveConfig  string
}

// applyScanFlags overrides conf with every flag the user set
func applyScanFlags(cmd *cobra.Command, conf *config.Config, flags *scanFlags) {
	if cmd.Flags().Changed("range") {
		conf.NetworkRanges = flags.ranges
	}

	if cmd.Flags().Changed("protocol") {
		conf.Protocols = flags.protocols
	}

	if cmd.Flags().Changed("concurrency") {
		conf.MaxConcurrent = flags.concurrency
	}

	if cmd.Flags().Changed("delay") {
		conf.RateLimitDelay = flags.delay
	}

	if cmd.Flags().Changed("timeout") {
		conf.ScanTimeout = flags.timeout
	}

	if cmd.Flags().Changed("prefilter") {
		conf.Prefilter = flags.prefilter
	}
}

// creates and returns the "scan" command
func scan() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Runs one discovery scan and prints the devices found",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()

			if !util.SliceIncludes(outputFormats, flags.output) {
				return fmt.Errorf(
					"invalid output %q, must be one of %s",
					flags.output,
					strings.Join(outputFormats, ", "),
				)
			}

			conf, err := loadConfig()

			if err != nil {
				return err
			}

			applyScanFlags(cmd, conf, flags)

			if flags.saveConfig != "" {
				if err := config.Write(conf, flags.saveConfig); err != nil {
					return err
				}
				log.Info().Str("path", flags.saveConfig).Msg("saved scan configuration")
			}

			appCore, err := core.CreateNewAppCore(conf)

			if err != nil {
				return err
			}

			defer appCore.Stop()

			done := make(chan struct{})
			defer close(done)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)
			defer signal.Stop(sigs)

			go func() {
				select {
				case <-sigs:
					log.Warn().Msg("interrupt received, engaging emergency stop")
					appCore.EmergencyStop()
				case <-done:
				}
			}()

			report, err := appCore.Scan(cmd.Context())

			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), flags.output, report)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.ranges, "range", "r", nil, "cidr or ip to scan, may be repeated")
	cmd.Flags().StringSliceVarP(&flags.protocols, "protocol", "p", nil, "protocol to probe, may be repeated")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table, json or yaml")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "maximum concurrent probes")
	cmd.Flags().DurationVar(&flags.delay, "delay", 0, "delay between probes of one protocol")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "overall scan timeout")
	cmd.Flags().StringVar(&flags.prefilter, "prefilter", config.PrefilterNone, "liveness pre-sweep: none or nmap")
	cmd.Flags().StringVar(&flags.saveConfig, "save-config", "", "write the effective configuration to this path")

	return cmd
}
