package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/blueprint/internal/domain/model"
)

func generateCmd() *cobra.Command {
	var profile model.BirthProfile

	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report without starting the HTTP API",
		Example: `  blueprint generate --name "Ada Lovelace" --date 1815-12-10 --time 13:30 \
    --place "London, UK" --email ada@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// Logs go to stderr; stdout carries only the result.
			cfg, log, err := setup(ctx, os.Stderr)
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, log)
			if err != nil {
				return err
			}
			return generate(ctx, svc, profile, cmd.OutOrStdout())
		},
	}

	c.Flags().StringVar(&profile.Name, "name", "", "full name (required)")
	c.Flags().StringVar(&profile.BirthDate, "date", "", "birth date, YYYY-MM-DD (required)")
	c.Flags().StringVar(&profile.BirthTime, "time", "", "birth time, HH:MM (required)")
	c.Flags().StringVar(&profile.BirthPlace, "place", "", "birth place (required)")
	c.Flags().StringVar(&profile.Email, "email", "", "mail the report to this address")
	for _, name := range []string{"name", "date", "time", "place"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

// Generator runs the blueprint pipeline.
type Generator interface {
	Start(ctx context.Context) error
	Stop()
	Generate(ctx context.Context, profile model.BirthProfile) (model.Result, error)
}

// generate runs a single pipeline and prints the result as JSON to w.
func generate(ctx context.Context, gen Generator, profile model.BirthProfile, w io.Writer) error {
	if err := gen.Start(ctx); err != nil {
		return err
	}
	defer gen.Stop()

	res, err := gen.Generate(ctx, profile)
	if err != nil {
		return fmt.Errorf("generate blueprint: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
