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
	rollbackStepsFlag            = "steps"
	rollbackEnvFlag              = "env"
	rollbackDryRunFlag           = "dry-run"
	rollbackAllowDestructiveFlag = "allow-destructive"
)

var rollbackFlags = map[string]cobraflags.Flag{
	rollbackStepsFlag: &cobraflags.StringFlag{
		Name:  rollbackStepsFlag,
		Value: "1",
		Usage: "number of most-recently-applied migrations to roll back",
	},
	rollbackEnvFlag: &cobraflags.StringFlag{
		Name:  rollbackEnvFlag,
		Value: "development",
		Usage: "named environment from the project config to connect to",
	},
	rollbackDryRunFlag: &cobraflags.BoolFlag{
		Name:  rollbackDryRunFlag,
		Value: false,
		Usage: "parse and validate the rollback without executing it",
	},
	rollbackAllowDestructiveFlag: &cobraflags.BoolFlag{
		Name:  rollbackAllowDestructiveFlag,
		Value: false,
		Usage: "roll back migrations flagged destructive instead of refusing them",
	},
}

func newRollbackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migrations",
		RunE:  runRollback,
	}
	cobraflags.RegisterMap(cmd, rollbackFlags)
	return cmd
}

func runRollback(cmd *cobra.Command, _ []string) error {
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

	envName := rollbackFlags[rollbackEnvFlag].GetString()
	steps := parseStepsFlag(rollbackFlags[rollbackStepsFlag].GetString())

	pool, closePool, err := openPool(ctx, cfg, envName, 0)
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

	toRollback := migration.RollbackPlan(planned, steps)
	if len(toRollback) == 0 {
		return report.Write(os.Stdout, format, noColor, report.Summary{
			Command: "rollback",
			Status:  report.StatusNoop,
			Message: "no applied migrations to roll back",
		})
	}

	runner := migration.NewRunner(pool, cfg.Dialect).
		WithLogger(newLogger()).
		WithAllowDestructive(rollbackFlags[rollbackAllowDestructiveFlag].GetBool()).
		WithDryRun(rollbackFlags[rollbackDryRunFlag].GetBool())

	if err := runner.RollbackAll(ctx, toRollback); err != nil {
		return err
	}

	versions := make([]string, len(toRollback))
	for i, p := range toRollback {
		versions[i] = p.File.Version
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "rollback",
		Status:  report.StatusOK,
		Message: fmt.Sprintf("rolled back %d migration(s)", len(toRollback)),
		Details: map[string]any{"versions": versions},
	})
}

func parseStepsFlag(raw string) int {
	n := parseTimeoutFlag(raw)
	if n == 0 {
		return 1
	}
	return n
}
