package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/config"
	"github.com/stratadb/strata/internal/report"
	"github.com/stratadb/strata/internal/schema"
)

const (
	initDialectFlag = "dialect"
	initForceFlag   = "force"
)

var initFlags = map[string]cobraflags.Flag{
	initDialectFlag: &cobraflags.StringFlag{
		Name:  initDialectFlag,
		Value: "",
		Usage: "database dialect: postgresql, mysql, or sqlite (required)",
	},
	initForceFlag: &cobraflags.BoolFlag{
		Name:  initForceFlag,
		Value: false,
		Usage: "overwrite an existing project config",
	},
}

const initConfigTemplate = `version: "1"
dialect: %s
schema_dir: schema
migrations_dir: migrations

environments:
  development:
    host: localhost
    port: %d
    database: strata_dev
    user: postgres
    password: ""
`

func defaultPort(d schema.Dialect) int {
	switch d {
	case schema.Postgres:
		return 5432
	case schema.MySQL:
		return 3306
	default:
		return 0
	}
}

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new .strata.yaml project config and schema directory",
		RunE:  runInit,
	}
	cobraflags.RegisterMap(cmd, initFlags)
	return cmd
}

func runInit(_ *cobra.Command, _ []string) error {
	dialect := schema.Dialect(initFlags[initDialectFlag].GetString())
	force := initFlags[initForceFlag].GetBool()

	switch dialect {
	case schema.Postgres, schema.MySQL, schema.SQLite:
	default:
		return fmt.Errorf("init: --dialect must be one of postgresql, mysql, sqlite (got %q)", dialect)
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("init: %s already exists (use --force to overwrite)", path)
	}

	content := fmt.Sprintf(initConfigTemplate, dialect, defaultPort(dialect))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("init: writing %s: %w", path, err)
	}

	if err := os.MkdirAll("schema", 0o755); err != nil {
		return fmt.Errorf("init: creating schema directory: %w", err)
	}
	if err := os.MkdirAll("migrations", 0o755); err != nil {
		return fmt.Errorf("init: creating migrations directory: %w", err)
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "init",
		Status:  report.StatusOK,
		Message: fmt.Sprintf("created %s", filepath.Clean(path)),
		Details: map[string]any{"dialect": string(dialect)},
	})
}
