package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crudform/pkg/openapi"
)

var (
	openapiFormat string
	openapiOutput string
	openapiList   bool
)

var openapiCmd = &cobra.Command{
	Use:   "openapi PAGE",
	Short: "Export an OpenAPI 3 document for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		doc, err := orch.OpenAPI(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out, err := openOutput(openapiOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		if openapiList {
			for _, op := range openapi.Operations(doc) {
				if _, err := fmt.Fprintf(out, "%-7s %-30s %s\n", op.Method, op.Path, op.ID); err != nil {
					return err
				}
			}
			return nil
		}

		switch openapiFormat {
		case "json":
			return writeJSON(out, doc)
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q", openapiFormat)
		}
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "json or yaml")
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "write to a file instead of stdout")
	openapiCmd.Flags().BoolVar(&openapiList, "list", false, "list operations instead of printing the document")

	rootCmd.AddCommand(openapiCmd)
}
