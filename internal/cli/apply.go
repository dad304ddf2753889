package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/migration"
	"github.com/stratadb/strata/internal/report"
)

const (
	applyDryRunFlag           = "dry-run"
	applyEnvFlag              = "env"
	applyTimeoutFlag          = "timeout"
	applyAllowDestructiveFlag = "allow-destructive"
)

var applyFlags = map[string]cobraflags.Flag{
	applyDryRunFlag: &cobraflags.BoolFlag{
		Name:  applyDryRunFlag,
		Value: false,
		Usage: "parse and validate pending migrations without executing them",
	},
	applyEnvFlag: &cobraflags.StringFlag{
		Name:  applyEnvFlag,
		Value: "development",
		Usage: "named environment from the project config to connect to",
	},
	applyTimeoutFlag: &cobraflags.StringFlag{
		Name:  applyTimeoutFlag,
		Value: "",
		Usage: "connection timeout in seconds, overriding the environment's default",
	},
	applyAllowDestructiveFlag: &cobraflags.BoolFlag{
		Name:  applyAllowDestructiveFlag,
		Value: false,
		Usage: "apply migrations flagged destructive instead of refusing them",
	},
}

func newApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations to the target database",
		RunE:  runApply,
	}
	cobraflags.RegisterMap(cmd, applyFlags)
	return cmd
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	files, err := migration.Discover(os.DirFS(cfg.MigrationsDir))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	envName := applyFlags[applyEnvFlag].GetString()
	timeout := parseTimeoutFlag(applyFlags[applyTimeoutFlag].GetString())

	pool, closePool, err := openPool(ctx, cfg, envName, timeout)
	if err != nil {
		return err
	}
	defer closePool()

	applied, err := migration.LoadApplied(ctx, pool)
	if err != nil {
		return err
	}

	planned := migration.Reconcile(files, applied)
	if err := migration.CheckDrift(planned); err != nil {
		return err
	}

	pending := migration.Pending(planned)
	if len(pending) == 0 {
		return report.Write(os.Stdout, format, noColor, report.Summary{
			Command: "apply",
			Status:  report.StatusNoop,
			Message: "no pending migrations",
		})
	}

	runner := migration.NewRunner(pool, cfg.Dialect).
		WithLogger(newLogger()).
		WithAllowDestructive(applyFlags[applyAllowDestructiveFlag].GetBool()).
		WithDryRun(applyFlags[applyDryRunFlag].GetBool())

	if err := runner.ApplyAll(ctx, pending); err != nil {
		return err
	}

	versions := make([]string, len(pending))
	for i, p := range pending {
		versions[i] = p.File.Version
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "apply",
		Status:  report.StatusOK,
		Message: fmt.Sprintf("applied %d migration(s)", len(pending)),
		Details: map[string]any{"versions": versions},
	})
}
