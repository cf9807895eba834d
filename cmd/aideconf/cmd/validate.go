package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aideconf/internal/probe"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().Bool("check-files", false, "verify that referenced files and directories exist")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := fsutil.ReadScoped(args[0])
	if err != nil {
		return err
	}
	doc, err := document.ParseYAML(data)
	if err != nil {
		if doc, err = document.ParseJSON(data); err != nil {
			return fmt.Errorf("%s is neither valid YAML nor valid JSON", args[0])
		}
	}

	checkFiles, _ := cmd.Flags().GetBool("check-files")
	validator := validate.New(schema.Builtin(), probe.Filesystem{})
	report := validator.Validate(context.Background(), doc, validate.Context{
		CheckFileExistence: checkFiles,
	})

	out := cmd.OutOrStdout()
	for _, issue := range report.Errors {
		fmt.Fprintf(out, "error: %s: %s\n", issue.FieldPath, issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(out, "warning: %s: %s\n", issue.FieldPath, issue.Message)
	}
	for _, suggestion := range report.Suggestions {
		fmt.Fprintf(out, "suggestion: %s\n", suggestion)
	}

	if !report.Valid {
		return fmt.Errorf("%d validation error(s)", len(report.Errors))
	}
	fmt.Fprintln(out, "configuration is valid")
	return nil
}
