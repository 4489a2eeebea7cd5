package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/magink/contracts"
	"github.com/magink/magink/x/magink/events"
)

// withApp loads config, builds the app and runs fn against it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	app, err := NewApp(cmd.Context(), cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	return fn(cmd.Context(), app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the contract event log",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	fmt.Println(banner)
	fmt.Println()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	logger.Info().
		Str("config_file", cfgFile).
		Str("listen_addr", cfg.API.ListenAddr).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Str("contract", cfg.Chain.ContractAddress).
		Str("read_failure_policy", string(cfg.Submit.ReadFailurePolicy)).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cmd.Context(), cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Serve(cmd.Context())
}

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Claim the next badge, or mint the wizard NFT once enough badges are held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if !app.flag.TryStart() {
					return fmt.Errorf("a submission is already running")
				}
				out := app.submitter.Submit(ctx, app.flag)
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return out.Err
			})
		},
	}
}

func newStartCmd() *cobra.Command {
	var era uint8
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a challenge era for the configured account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				res, err := app.provider.Start.SignAndSend(ctx, []any{era}, nil, nil)
				if res != nil {
					if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().Uint8Var(&era, "era", 10, "era length in blocks between claims")
	return cmd
}

type statusReport struct {
	Account     string                   `json:"account"`
	Badges      *uint8                   `json:"badges,omitempty"`
	Remaining   *uint8                   `json:"remaining,omitempty"`
	CanMint     bool                     `json:"can_mint"`
	Profile     *contracts.ProfileLookup `json:"profile,omitempty"`
	TotalSupply string                   `json:"wizard_total_supply,omitempty"`
	Errors      map[string]string        `json:"errors,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [address]",
		Short: "Show badges, remaining blocks and profile for an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				account, err := statusAccount(app, args)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), collectStatus(ctx, app.provider, account))
			})
		},
	}
}

func statusAccount(app *App, args []string) (common.Address, error) {
	if len(args) == 1 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, fmt.Errorf("invalid address %q", args[0])
		}
		return common.HexToAddress(args[0]), nil
	}
	account, ok := app.client.Account()
	if !ok {
		return common.Address{}, fmt.Errorf("no address given and no signing key configured")
	}
	return account, nil
}

func collectStatus(ctx context.Context, p *magink.Provider, account common.Address) statusReport {
	opts := &magink.CallOptions{DefaultCaller: true}
	args := []any{account}
	report := statusReport{Account: account.Hex(), Errors: map[string]string{}}

	if res := p.GetBadgesFor.Send(ctx, args, opts); res.Ok() {
		report.Badges = &res.Value
		report.CanMint = res.Value >= magink.MintThreshold
	} else {
		report.Errors["badges"] = res.Err.Error()
	}
	if res := p.GetRemainingFor.Send(ctx, args, opts); res.Ok() {
		report.Remaining = &res.Value
	} else {
		report.Errors["remaining"] = res.Err.Error()
	}
	if res := p.GetAccountProfile.Send(ctx, args, opts); res.Ok() {
		report.Profile = &res.Value
	} else {
		report.Errors["profile"] = res.Err.Error()
	}
	if res := p.GetTotalWizardSupply.Send(ctx, nil, opts); res.Ok() {
		report.TotalSupply = res.Value.String()
	} else {
		report.Errors["total_supply"] = res.Err.Error()
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report
}

func newDryRunCmd() *cobra.Command {
	var era uint8
	cmd := &cobra.Command{
		Use:       "dry-run {start|claim}",
		Short:     "Simulate start or claim for the configured account",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{contracts.MethodStart, contracts.MethodClaim},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				var res magink.DryRunResult
				if args[0] == contracts.MethodStart {
					res = app.provider.StartDryRun.Send(ctx, []any{era}, nil)
				} else {
					res = app.provider.ClaimDryRun.Send(ctx, nil, nil)
				}

				report := map[string]any{"op": args[0], "ok": res.Ok(), "gas_required": res.GasRequired}
				if res.Err != nil {
					report["error"] = res.Err.Error()
					if name, ok := contracts.ErrorName(res.Err); ok {
						report["contract_error"] = name
					}
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().Uint8Var(&era, "era", 10, "era passed to start")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream contract events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				w := events.NewWatcher(app.client.Eth(), app.binding, app.log)
				if account != "" {
					if !common.IsHexAddress(account) {
						return fmt.Errorf("invalid account %q", account)
					}
					w.Account = common.HexToAddress(account)
				}

				ch, err := w.Watch(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				for evt := range ch {
					if err := enc.Encode(evt); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only show events of this account")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
