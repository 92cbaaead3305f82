package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/renderers/tui"
)

var (
	fillDryRun bool
	fillFormat string
)

var fillCmd = &cobra.Command{
	Use:   "fill PAGE",
	Short: "Prompt for a new record in the terminal and create it",
	Long: `Prompt for every form field of a page and post the answers to its create
endpoint. Multiple-entry pages prompt for rows until you stop adding them.
With --dry-run the collected payload is printed instead of sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		p, err := orch.Page(args[0])
		if err != nil {
			return err
		}
		defer p.Close()
		if _, err := p.Load(ctx); err != nil {
			return err
		}
		if err := p.Err(); err != nil {
			return fmt.Errorf("schema for %s: %w", args[0], err)
		}
		props, err := orch.Props(ctx, p)
		if err != nil {
			return err
		}
		if !props.Ready() {
			return fmt.Errorf("%s: %w", args[0], render.ErrNotReady)
		}

		terminal, err := tui.New(
			tui.WithPromptDriver(tui.NewSurveyDriver(os.Stderr)),
			tui.WithOutputFormat(tui.OutputFormat(fillFormat)),
		)
		if err != nil {
			return err
		}

		if fillDryRun {
			output, err := terminal.Render(ctx, props, render.RenderOptions{Mode: render.ModeForm})
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(output, '\n'))
			return err
		}

		records, err := terminal.Fill(ctx, props, render.RenderOptions{Mode: render.ModeForm})
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				log.Infow("fill aborted", "page", p.Name())
				return nil
			}
			return err
		}
		created, err := orch.Records().Create(ctx, props.FormAPI, records...)
		if err != nil {
			return err
		}
		log.Infow("records created", "page", p.Name(), "count", len(created))
		return writeJSON(os.Stdout, created)
	},
}

func init() {
	fillCmd.Flags().BoolVar(&fillDryRun, "dry-run", false, "print the payload instead of creating it")
	fillCmd.Flags().StringVar(&fillFormat, "format", string(tui.OutputFormatJSON), "dry-run output: json, form or pretty")

	rootCmd.AddCommand(fillCmd)
}
