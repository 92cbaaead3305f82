package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/page"
	"github.com/goliatone/go-crudform/pkg/schema"
)

var (
	normalizeAll    bool
	normalizeSource string
	normalizeOutput string
)

type pageReport struct {
	Name   string           `json:"name"`
	State  page.State       `json:"state"`
	Result normalize.Result `json:"result"`
	Error  string           `json:"error,omitempty"`
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [PAGE]",
	Short: "Print the normalized fields of a page schema",
	Long: `Fetch a page schema and print its columns, field groups and printable fields.

With --all every configured page is loaded concurrently. A page whose schema
cannot be fetched is reported as empty without failing the others.
With --source a local schema file is normalized without any configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := openOutput(normalizeOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		if normalizeSource != "" {
			data, err := os.ReadFile(normalizeSource)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}
			raw, err := schema.Decode(data)
			if err != nil {
				return err
			}
			return writeJSON(out, normalize.Normalize(raw))
		}

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if normalizeAll {
			pages := orch.Pages()
			defer func() {
				for _, p := range pages {
					p.Close()
				}
			}()
			if err := page.LoadAll(ctx, pages...); err != nil {
				return err
			}
			reports := make([]pageReport, 0, len(pages))
			for _, p := range pages {
				report := pageReport{Name: p.Name(), State: p.State(), Result: p.Result()}
				if err := p.Err(); err != nil {
					report.Error = err.Error()
				}
				reports = append(reports, report)
			}
			log.Infow("normalized pages", "count", len(reports))
			return writeJSON(out, reports)
		}

		if len(args) == 0 {
			return errors.New("a page name, --all or --source is required")
		}
		result, state, err := orch.Normalize(ctx, args[0])
		report := pageReport{Name: args[0], State: state, Result: result}
		if err != nil {
			if state == "" {
				return err
			}
			report.Error = err.Error()
		}
		return writeJSON(out, report)
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeAll, "all", false, "normalize every configured page")
	normalizeCmd.Flags().StringVar(&normalizeSource, "source", "", "normalize a local schema file")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "write to a file instead of stdout")
	normalizeCmd.MarkFlagsMutuallyExclusive("all", "source")

	rootCmd.AddCommand(normalizeCmd)
}
