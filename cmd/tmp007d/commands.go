package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tmp007-go/config"
	"tmp007-go/drivers/tmp007"
	"tmp007-go/logging"
)

type options struct {
	configPath string
	verbosity  int
	backend    string
	mode       string
	listen     string
}

// NewRootCmd builds the tmp007d command tree.
func NewRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "tmp007d",
		Short: "TMP007 infrared temperature sensor daemon",
		Long: `tmp007d drives a TMP007 over I2C, services its ALERT interrupt and
exports readings as Prometheus metrics.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.verbosity, nil)
			log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cfg)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.StringVar(&opts.backend, "backend", "", "override gpio.backend (sim|rpio)")
	flags.StringVar(&opts.mode, "mode", "", "override trigger.mode (none|own_thread|global_thread)")
	rootCmd.Flags().StringVar(&opts.listen, "listen", "", "override metrics.listen")

	rootCmd.AddCommand(newReadCmd(&opts))
	return rootCmd
}

func newReadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Fetch one object temperature sample and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *opts)
			if err != nil {
				return err
			}
			hw, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer hw.Close()

			if hw.sim != nil {
				hw.sim.Sample(cfg.Sim.StartTemperature())
			}
			dev := tmp007.New(hw.bus, tmp007.Config{Address: cfg.I2C.Address, ThresholdScale: cfg.Thresholds.Scale})
			if err := dev.SampleFetch(); err != nil {
				return fmt.Errorf("sample fetch: %w", err)
			}
			v, err := dev.ChannelGet(tmp007.ChanTemp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Temperature())
			return nil
		},
	}
}

// loadConfig reads the file named by --config, or the defaults, then applies
// flag overrides.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if opts.backend != "" {
		cfg.GPIO.Backend = opts.backend
	}
	if opts.mode != "" {
		cfg.Trigger.Mode = opts.mode
	}
	if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
		cfg.Metrics.Listen = opts.listen
	}
	if opts.verbosity == 0 && cfg.Log.Verbosity > 0 {
		logging.Setup(cfg.Log.Verbosity, nil)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
