package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Source     string `json:"source"`
	Collection string `json:"collection"`
	Connector  string `json:"connector"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a query document without printing its plan",
		Long: `Check a query document against the connector catalog.

Runs every stage of plan (parse, build, structural validation, planning)
and reports all problems found, without writing a plan or a journal entry.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, "load config", err)
	}

	formatter.VerboseLog("Validating %s", path)
	compiled, err := compileFile(path, cfg.Catalog)
	if err != nil {
		return outputProblems(formatter, "validation failed", problemsFrom(err))
	}

	result := ValidationResult{
		Valid:      true,
		Source:     path,
		Collection: compiled.query.Collection,
		Connector:  compiled.query.Connector.Name,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%s on %s)\n", path, result.Collection, result.Connector)
	return nil
}
