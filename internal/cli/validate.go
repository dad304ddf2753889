package cli

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/report"
	"github.com/stratadb/strata/internal/yamlschema"
)

const validateSchemaDirFlag = "schema-dir"

var validateFlags = map[string]cobraflags.Flag{
	validateSchemaDirFlag: &cobraflags.StringFlag{
		Name:  validateSchemaDirFlag,
		Value: "",
		Usage: "schema directory to validate, overriding the project config",
	},
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the schema directory without touching a database",
		RunE:  runValidate,
	}
	cobraflags.RegisterMap(cmd, validateFlags)
	return cmd
}

func runValidate(_ *cobra.Command, _ []string) error {
	dir := validateFlags[validateSchemaDirFlag].GetString()
	if dir == "" {
		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}
		dir = cfg.SchemaDir
	}

	_, result, err := yamlschema.LoadDir(dir)
	if err != nil {
		return err
	}

	if !result.OK() {
		details := make(map[string]any, len(result.Violations))
		for i, v := range result.Violations {
			details[fmt.Sprintf("violation_%d", i+1)] = v.Message
		}
		return report.Write(os.Stdout, format, noColor, report.Summary{
			Command: "validate",
			Status:  report.StatusError,
			Message: fmt.Sprintf("%d violation(s) found", len(result.Violations)),
			Details: details,
		})
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "validate",
		Status:  report.StatusOK,
		Message: "schema is valid",
	})
}
