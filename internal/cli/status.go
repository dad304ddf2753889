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

const statusEnvFlag = "env"

var statusFlags = map[string]cobraflags.Flag{
	statusEnvFlag: &cobraflags.StringFlag{
		Name:  statusEnvFlag,
		Value: "development",
		Usage: "named environment from the project config to connect to",
	},
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied, pending, or drifted",
		RunE:  runStatus,
	}
	cobraflags.RegisterMap(cmd, statusFlags)
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
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

	pool, closePool, err := openPool(ctx, cfg, statusFlags[statusEnvFlag].GetString(), 0)
	if err != nil {
		return err
	}
	defer closePool()

	applied, err := migration.LoadApplied(ctx, pool)
	if err != nil {
		return err
	}

	planned := migration.Reconcile(files, applied)

	details := make(map[string]any, len(planned))
	counts := map[migration.Status]int{}
	for _, p := range planned {
		details[p.File.Version] = string(p.Status)
		counts[p.Status]++
	}

	status := report.StatusOK
	if counts[migration.StatusChecksumDrift] > 0 {
		status = report.StatusError
	}

	return report.Write(os.Stdout, format, noColor, report.Summary{
		Command: "status",
		Status:  status,
		Message: fmt.Sprintf("%d applied, %d pending, %d drifted",
			counts[migration.StatusApplied], counts[migration.StatusPending], counts[migration.StatusChecksumDrift]),
		Details: details,
	})
}
