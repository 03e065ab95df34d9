package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/blueprint/internal/client"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
)

// Default configuration constants.
const (
	defaultURL     = "http://localhost:8000"
	defaultCount   = 20
	defaultTimeout = 2 * time.Minute
	defaultRunTime = 30 * time.Minute
)

type globalFlags struct {
	baseURL   string
	timeout   time.Duration
	logFormat string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "blueprint-client",
		Short:        "Call a running Soul Blueprint service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to stderr; stdout carries command output.
			if err := logger.InitWithFormat(g.logFormat, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if g.verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&g.baseURL, "url", defaultURL, "base URL of the service")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", defaultTimeout, "per-request timeout")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format: text|json")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(checkCmd(g), generateCmd(g), loadCmd(g))
	return cmd
}

func (g *globalFlags) client() *client.Client {
	return client.New(g.baseURL,
		client.WithTimeout(g.timeout),
		client.WithLogger(logger.Named("client")),
	)
}

func checkCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check service health and print its counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := g.client()
			if err := c.Health(ctx); err != nil {
				return err
			}
			stats, err := c.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func generateCmd(g *globalFlags) *cobra.Command {
	var profile model.BirthProfile
	var random bool

	c := &cobra.Command{
		Use:   "generate",
		Short: "Request one blueprint",
		Example: `  blueprint-client generate --name "Ada Lovelace" --date 1815-12-10 --time 13:30 --place "London, UK"
  blueprint-client generate --random`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if random {
				profile = client.RandomProfile(0, "")
			}
			res, err := g.client().Generate(cmd.Context(), profile)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	c.Flags().StringVar(&profile.Name, "name", "", "full name")
	c.Flags().StringVar(&profile.BirthDate, "date", "", "birth date, YYYY-MM-DD")
	c.Flags().StringVar(&profile.BirthTime, "time", "", "birth time, HH:MM")
	c.Flags().StringVar(&profile.BirthPlace, "place", "", "birth place")
	c.Flags().StringVar(&profile.Email, "email", "", "mail the report to this address")
	c.Flags().BoolVar(&random, "random", false, "send a random valid profile")
	c.MarkFlagsMutuallyExclusive("random", "name")
	return c
}

func loadCmd(g *globalFlags) *cobra.Command {
	cfg := client.RunConfig{}

	c := &cobra.Command{
		Use:   "load",
		Short: "Submit many random profiles concurrently and verify the answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTime)
			defer cancel()

			cfg.Verbose = g.verbose
			summary, err := client.Run(ctx, g.client(), cfg)
			if summary != nil {
				if perr := printSummary(cmd.OutOrStdout(), summary); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	c.Flags().IntVarP(&cfg.Count, "count", "n", defaultCount, "number of profiles to submit")
	c.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "concurrent requests")
	c.Flags().StringVar(&cfg.EmailDomain, "email-domain", "", "request email delivery to addresses at this domain")
	c.Flags().StringVarP(&cfg.OutputFile, "output", "o", "", "write every outcome to this JSON file")
	return c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, s *client.Summary) error {
	_, err := fmt.Fprintf(w, `Submitted:    %d
Succeeded:    %d
Failed:       %d
Success rate: %.1f%%
Reused paths: %d
Duration:     %s
By code:      %v
Problems:     %d
`, s.Submitted, s.Succeeded, s.Failed, s.SuccessRate(), s.ReusedPaths, s.Duration.Round(time.Millisecond), s.ByCode, len(s.Problems))
	return err
}
