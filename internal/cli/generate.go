package cli

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/generator"
	"github.com/stratadb/strata/internal/report"
	"github.com/stratadb/strata/internal/yamlschema"
)

const (
	generateDescriptionFlag      = "description"
	generateDryRunFlag           = "dry-run"
	generateAllowDestructiveFlag = "allow-destructive"
)

var generateFlags = map[string]cobraflags.Flag{
	generateDescriptionFlag: &cobraflags.StringFlag{
		Name:  generateDescriptionFlag,
		Value: "",
		Usage: "short description recorded in the migration's .meta.yaml",
	},
	generateDryRunFlag: &cobraflags.BoolFlag{
		Name:  generateDryRunFlag,
		Value: false,
		Usage: "print the generated SQL without writing migration files",
	},
	generateAllowDestructiveFlag: &cobraflags.BoolFlag{
		Name:  generateAllowDestructiveFlag,
		Value: false,
		Usage: "allow enum recreation that would otherwise require confirmation",
	},
}

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Diff the schema directory against the last snapshot and write a migration",
		RunE:  runGenerate,
	}
	cobraflags.RegisterMap(cmd, generateFlags)
	return cmd
}

func runGenerate(_ *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	newSchema, validation, err := yamlschema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return err
	}
	if !validation.OK() {
		return schemaValidationError(validation)
	}

	oldSchema, err := loadPreviousSchema(cfg)
	if err != nil {
		return err
	}

	dryRun := generateFlags[generateDryRunFlag].GetBool()

	migrationsDir := cfg.MigrationsDir
	if dryRun {
		tmp, err := os.MkdirTemp("", "strata-generate-")
		if err != nil {
			return fmt.Errorf("generate: creating dry-run directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		migrationsDir = tmp
	}

	result, err := generator.Generate(generator.Options{
		MigrationsDir:                migrationsDir,
		Description:                  generateFlags[generateDescriptionFlag].GetString(),
		Dialect:                      cfg.Dialect,
		OldSchema:                    oldSchema,
		NewSchema:                    newSchema,
		AllowDestructiveEnumRecreate: generateFlags[generateAllowDestructiveFlag].GetBool(),
	})
	if err != nil {
		return err
	}

	if result.NoChanges {
		return report.Write(os.Stdout, format, noColor, report.Summary{
			Command: "generate",
			Status:  report.StatusNoop,
			Message: "schema matches the last snapshot, nothing to generate",
		})
	}

	if dryRun {
		fmt.Fprintln(os.Stdout, "-- up --")
		fmt.Fprintln(os.Stdout, result.UpSQL)
		fmt.Fprintln(os.Stdout, "-- down --")
		fmt.Fprintln(os.Stdout, result.DownSQL)
		return nil
	}

	if err := writeSnapshot(cfg, newSchema); err != nil {
		return err
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "generate",
		Status:  report.StatusOK,
		Message: fmt.Sprintf("wrote migration %s", result.Version),
		Details: map[string]any{
			"dir":         result.Dir,
			"destructive": result.Report.HasDestructiveChanges(),
		},
	})
}
