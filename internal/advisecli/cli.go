package advisecli

import (
	"context"
	"io"
	"os"

	"github.com/okian/overcall/pkg/logger"
	"github.com/spf13/cobra"
)

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	return NewRoot().ExecuteContext(ctx)
}

// NewRoot builds the advise command tree.
func NewRoot() *cobra.Command {
	cfg := Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}

	root := &cobra.Command{
		Use:           "advise",
		Short:         "Send or evaluate in-match advice requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var out io.Writer = io.Discard
			level := "info"
			if cfg.Verbose {
				out, level = cmd.ErrOrStderr(), "debug"
			}
			return logger.Init(logger.WithWriter(out), logger.WithLevel(level))
		},
	}
	root.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Print the full response as JSON")
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log to stderr")
	root.PersistentFlags().StringVar(&cfg.RequestID, "request-id", "", "Request id to send")

	root.AddCommand(sendCmd(&cfg), localCmd(&cfg))
	return root
}

func sendCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <payload.json|payload.yaml|->",
		Short: "Post a payload to a running service and print the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := LoadPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := Send(cmd.Context(), *cfg, payload)
			if err != nil {
				return err
			}
			return Render(cmd.OutOrStdout(), resp, cfg.JSON)
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", DefaultBaseURL, "Base URL of the service")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	return cmd
}

func localCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local <payload.json|payload.yaml|->",
		Short: "Evaluate a payload in-process with rules only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := LoadPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := Local(cmd.Context(), *cfg, payload)
			if err != nil {
				return err
			}
			return Render(cmd.OutOrStdout(), resp, cfg.JSON)
		},
	}
	cmd.Flags().StringVar(&cfg.BaselineDB, "baselines", "", "SQLite baseline file")
	return cmd
}

// Main runs the CLI and exits non-zero on failure.
func Main() {
	if err := Execute(context.Background()); err != nil {
		os.Stderr.WriteString("advise: " + err.Error() + "\n")
		os.Exit(1)
	}
}
