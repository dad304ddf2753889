package migration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stratadb/strata/internal/destructive"
)

// WriteMetaFile serializes a migration's .meta.yaml in the same shape
// Discover parses, for use by the migration generator.
func WriteMetaFile(path, description, checksum string, report *destructive.Report) error {
	mf := metaFile{
		Description: description,
		Destructive: report != nil && report.HasDestructiveChanges(),
		Checksum:    checksum,
		Report:      report,
	}
	raw, err := yaml.Marshal(mf)
	if err != nil {
		return fmt.Errorf("migration: serializing %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("migration: writing %s: %w", path, err)
	}
	return nil
}
