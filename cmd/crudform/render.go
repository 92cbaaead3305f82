package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-crudform/pkg/orchestrator"
	"github.com/goliatone/go-crudform/pkg/render"
)

var (
	renderPage     string
	renderRenderer string
	renderMode     string
	renderRecordID string
	renderTheme    string
	renderVariant  string
	renderPreset   string
	renderOutput   string
	renderNoRows   bool
)

var renderCmd = &cobra.Command{
	Use:   "render --page PAGE",
	Short: "Render a page to stdout or a file",
	Long: `Render one configured page.

The list mode fetches rows from the page's read endpoint. The form and print
modes load the record named by --id when it is set. A page whose schema is
not ready renders nothing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var opts []orchestrator.Option
		if renderPreset != "" {
			preset, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(renderPreset)), filepath.Base(renderPreset))
			if err != nil {
				return err
			}
			opts = append(opts, orchestrator.WithSchemaTransformer(preset))
		}
		orch, err := newOrchestrator(opts...)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		mode := render.Mode(renderMode)
		switch mode {
		case render.ModeList, render.ModeForm, render.ModePrint:
		default:
			return fmt.Errorf("unknown mode %q", renderMode)
		}

		ro := render.RenderOptions{Mode: mode, RecordID: renderRecordID}
		if renderRecordID != "" {
			pc, ok := orch.Config().Page(renderPage)
			if !ok {
				return fmt.Errorf("%w: %q", orchestrator.ErrUnknownPage, renderPage)
			}
			record, err := orch.Records().Get(ctx, pc.FormAPI, renderRecordID)
			if err != nil {
				return err
			}
			ro.Record = record
		}

		output, err := orch.Generate(ctx, orchestrator.Request{
			Page:          renderPage,
			Renderer:      renderRenderer,
			Theme:         renderTheme,
			Variant:       renderVariant,
			LoadRows:      !renderNoRows,
			RenderOptions: ro,
		})
		if err != nil {
			return err
		}
		if len(output) == 0 {
			log.Warnw("page is not ready, nothing rendered", "page", renderPage)
			return nil
		}

		out, err := openOutput(renderOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = out.Write(output)
		return err
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderPage, "page", "p", "", "page name (required)")
	renderCmd.Flags().StringVarP(&renderRenderer, "renderer", "r", "vanilla", "renderer name")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", string(render.ModeList), "list, form or print")
	renderCmd.Flags().StringVar(&renderRecordID, "id", "", "record id for form and print modes")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "theme name")
	renderCmd.Flags().StringVar(&renderVariant, "variant", "", "theme variant")
	renderCmd.Flags().StringVar(&renderPreset, "preset", "", "JSON preset with label overrides")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write to a file instead of stdout")
	renderCmd.Flags().BoolVar(&renderNoRows, "no-rows", false, "skip fetching list rows")
	cobra.CheckErr(renderCmd.MarkFlagRequired("page"))

	rootCmd.AddCommand(renderCmd)
}
