package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"graphfi/internal/chart"
	"graphfi/internal/cli"
	"graphfi/internal/config"
	"graphfi/internal/core"
	"graphfi/internal/log"
	"graphfi/internal/notify"
	"graphfi/internal/store"
)

func renderCmd() *cobra.Command {
	var (
		input  string
		output string
		scale  float64
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Export a chart PNG from a JSON allocation list",
		Long: `Render reads allocations as a JSON array of {"label", "percentage"}
objects and writes the exported PNG. Without --input the default
breakdown is used; "-" reads standard input.`,
		Example: `  graphfi render --input allocations.json --output chart.png
  echo '[{"label":"Team","percentage":100}]' | graphfi render -i - -o team.png`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(envFiles...)
			if !cmd.Flags().Changed("scale") {
				scale = cfg.ExportScale
			}
			if scale < 1 || scale > 4 {
				return fmt.Errorf("invalid scale %g: must be between 1 and 4", scale)
			}

			logger, err := cli.SetupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger = logger.WithComponent(log.ComponentCLI)

			st, err := loadStore(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if output == "" {
				output = chart.Filename
			}
			return renderFile(cmd.Context(), logger, st, output,
				chart.NewExporter(chart.PNGRenderer{},
					chart.WithScale(scale),
					chart.WithTimeout(cfg.ExportTimeout),
					chart.WithLogger(logger)))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON allocation file (\"-\" for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write (default "+chart.Filename+")")
	cmd.Flags().Float64Var(&scale, "scale", chart.DefaultExportScale, "pixel scale factor (1-4)")
	return cmd
}

func loadStore(input string, stdin io.Reader) (*store.Store, error) {
	if input == "" {
		return store.NewDefault(), nil
	}

	var r io.Reader = stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var entries core.Entries
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode allocations: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("decode allocations: %w", core.ErrEmptyList)
	}

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].Percentage = core.ClampPercentage(entries[i].Percentage)
	}
	return store.New(entries), nil
}

func renderFile(ctx context.Context, logger *log.Logger, st *store.Store, output string, exp *chart.Exporter) error {
	n := notify.Logger{Ctx: ctx, Logger: logger.Logger}
	if err := st.RequestGenerate(n); err != nil {
		return fmt.Errorf("allocations rejected: %w", err)
	}

	notify.Infof(n, chart.PreparingNotice)
	res, err := exp.Export(ctx, output, st.Entries(), n)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	logger.Info("Chart written", "path", output, log.FieldExportBytes, len(res.Data))
	return nil
}
