package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/introspect"
	"github.com/stratadb/strata/internal/report"
	"github.com/stratadb/strata/internal/schema"
	"github.com/stratadb/strata/internal/yamlschema"
)

const (
	exportOutputFlag        = "output"
	exportEnvFlag           = "env"
	exportForceFlag         = "force"
	exportSplitFlag         = "split"
	exportTablesFlag        = "tables"
	exportExcludeTablesFlag = "exclude-tables"
)

var exportFlags = map[string]cobraflags.Flag{
	exportOutputFlag: &cobraflags.StringFlag{
		Name:  exportOutputFlag,
		Value: "schema",
		Usage: "directory to write the introspected schema into",
	},
	exportEnvFlag: &cobraflags.StringFlag{
		Name:  exportEnvFlag,
		Value: "development",
		Usage: "named environment from the project config to connect to",
	},
	exportForceFlag: &cobraflags.BoolFlag{
		Name:  exportForceFlag,
		Value: false,
		Usage: "overwrite existing files in the output directory",
	},
	exportSplitFlag: &cobraflags.BoolFlag{
		Name:  exportSplitFlag,
		Value: false,
		Usage: "write one file per table instead of a single schema.yaml",
	},
	exportTablesFlag: &cobraflags.StringFlag{
		Name:  exportTablesFlag,
		Value: "",
		Usage: "comma-separated table names to include (default: all)",
	},
	exportExcludeTablesFlag: &cobraflags.StringFlag{
		Name:  exportExcludeTablesFlag,
		Value: "",
		Usage: "comma-separated table names to exclude",
	},
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Introspect the target database and write it back as schema YAML",
		RunE:  runExport,
	}
	cobraflags.RegisterMap(cmd, exportFlags)
	return cmd
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, closePool, err := openPool(ctx, cfg, exportFlags[exportEnvFlag].GetString(), 0)
	if err != nil {
		return err
	}
	defer closePool()

	opts := introspect.Options{
		IncludeTables: splitCSV(exportFlags[exportTablesFlag].GetString()),
		ExcludeTables: splitCSV(exportFlags[exportExcludeTablesFlag].GetString()),
	}

	s, err := introspect.Read(ctx, pool, cfg.Dialect, opts)
	if err != nil {
		return err
	}

	outDir := exportFlags[exportOutputFlag].GetString()
	force := exportFlags[exportForceFlag].GetBool()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("export: creating output directory %s: %w", outDir, err)
	}

	var written []string
	if exportFlags[exportSplitFlag].GetBool() {
		for name, t := range s.Tables {
			path := filepath.Join(outDir, name+".yaml")
			if err := checkOverwrite(path, force); err != nil {
				return err
			}
			single := schema.New(s.Version)
			single.AddTable(t)
			if err := yamlschema.WriteSnapshot(path, single); err != nil {
				return err
			}
			written = append(written, path)
		}
	} else {
		path := filepath.Join(outDir, "schema.yaml")
		if err := checkOverwrite(path, force); err != nil {
			return err
		}
		if err := yamlschema.WriteSnapshot(path, s); err != nil {
			return err
		}
		written = append(written, path)
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "export",
		Status:  report.StatusOK,
		Message: fmt.Sprintf("exported %d table(s)", len(s.Tables)),
		Details: map[string]any{"files": written},
	})
}

func checkOverwrite(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("export: %s already exists (use --force to overwrite)", path)
	}
	return nil
}
