package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/magink/magink/log"
	"github.com/magink/magink/magink-app/config"
)

const defaultConfigPath = "magink-app/configs/config.yaml"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:           "magink",
		Short:         "Magink challenge client",
		Long:          banner + "\n\nStart challenges, claim badges and mint the wizard NFT on the magink contract.",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}
)

const banner = `
███╗   ███╗ █████╗  ██████╗ ██╗███╗   ██╗██╗  ██╗
████╗ ████║██╔══██╗██╔════╝ ██║████╗  ██║██║ ██╔╝
██╔████╔██║███████║██║  ███╗██║██╔██╗ ██║█████╔╝
██║╚██╔╝██║██╔══██║██║   ██║██║██║╚██╗██║██╔═██╗
██║ ╚═╝ ██║██║  ██║╚██████╔╝██║██║ ╚████║██║  ██╗
╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝`

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func initCommands() {
	rootCmd.AddCommand(
		versionCmd,
		newServeCmd(),
		newSubmitCmd(),
		newStartCmd(),
		newStatusCmd(),
		newDryRunCmd(),
		newWatchCmd(),
		newConfigCmd(),
	)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// Chain flags
	rootCmd.PersistentFlags().String("rpc-endpoint", "", "node RPC endpoint")
	rootCmd.PersistentFlags().String("contract", "", "magink contract address")

	// API flags
	rootCmd.PersistentFlags().String("listen-addr", "", "HTTP API listen address")
	rootCmd.PersistentFlags().Bool("metrics", false, "enable metrics")
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgFile, explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.New(cfg.Log.Level, cfg.Log.Pretty)
}

func runVersion(*cobra.Command, []string) {
	fmt.Println(banner)
	fmt.Println()
	fmt.Printf("Magink\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}

	if flags.Changed("rpc-endpoint") {
		cfg.Chain.RPCEndpoint, _ = flags.GetString("rpc-endpoint")
	}
	if flags.Changed("contract") {
		cfg.Chain.ContractAddress, _ = flags.GetString("contract")
	}

	if flags.Changed("listen-addr") {
		cfg.API.ListenAddr, _ = flags.GetString("listen-addr")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
}
