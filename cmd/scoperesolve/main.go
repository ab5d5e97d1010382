// Command scoperesolve runs one ParseAsync pass over a YAML-described form
// and response, printing the resulting scope tree or a diagnostic report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdcforms/scoperesolve"
	"github.com/sdcforms/scoperesolve/internal/fixtures"
	"github.com/sdcforms/scoperesolve/pkg/diag"
	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/loader"
	"github.com/sdcforms/scoperesolve/pkg/patheval/basic"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

var (
	formPath     string
	responsePath string
	mode         string
)

func main() {
	root := &cobra.Command{
		Use:   "scoperesolve",
		Short: "Resolve a form's scope tree against launch contexts",
		RunE:  run,
	}
	root.Flags().StringVar(&formPath, "form", "", "path to a YAML form definition")
	root.Flags().StringVar(&responsePath, "response", "", "path to a YAML response, optional")
	root.Flags().StringVar(&mode, "mode", "population", "population or extraction")
	_ = root.MarkFlagRequired("form")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	formData, err := os.ReadFile(formPath)
	if err != nil {
		return fmt.Errorf("reading form: %w", err)
	}
	form, err := fixtures.LoadForm(formData)
	if err != nil {
		return fmt.Errorf("decoding form: %w", err)
	}

	var response *formmodel.Response
	if responsePath != "" {
		data, err := os.ReadFile(responsePath)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		response, err = fixtures.LoadResponse(data)
		if err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	rc := scoperesolve.ResolvingPopulation
	if mode == "extraction" {
		rc = scoperesolve.ResolvingExtraction
	}

	report := diag.NewReport()
	root, err := scoperesolve.ParseAsync(
		cmd.Context(),
		form,
		response,
		map[string]resource.Resource{},
		loader.NewStatic(nil),
		basic.New(),
		rc,
		scoperesolve.Options{Sink: report},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolution failed:", err)
		for _, e := range report.Entries {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Severity, e.Message)
		}
		return err
	}

	fmt.Println(diag.DumpScope(root))
	return nil
}
