// Package migration discovers migration directories on disk, reconciles
// them against the schema_migrations table recorded in the target
// database, and executes them transactionally.
package migration

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stratadb/strata/internal/destructive"
)

// versionPattern matches the directory-naming convention: a 14-digit
// timestamp prefix (sortable lexicographically because it's zero-padded)
// plus a lowercase, underscore-separated slug.
var versionPattern = regexp.MustCompile(`^\d{14}_[a-z0-9_]+$`)

// Meta is the parsed contents of a migration directory's .meta.yaml.
type Meta struct {
	Description string             `yaml:"description"`
	Destructive bool               `yaml:"destructive"`
	Report      *destructive.Report `yaml:"report,omitempty"`
}

// File is one discovered migration directory.
type File struct {
	Version  string // the 14-digit prefix
	Name     string // full directory name, e.g. 20250101120000_add_users
	UpSQL    string
	DownSQL  string
	Meta     Meta
	Checksum string // schema checksum recorded in .meta.yaml at generation time
}

// Status classifies a discovered migration against recorded history.
type Status string

const (
	StatusApplied        Status = "APPLIED"
	StatusChecksumDrift  Status = "CHECKSUM_DRIFT"
	StatusPending        Status = "PENDING"
)

// PlannedMigration pairs a discovered File with its reconciled Status.
type PlannedMigration struct {
	File   File
	Status Status
}

// AppliedRecord is one row from schema_migrations.
type AppliedRecord struct {
	Version  string
	Checksum string
}

// metaFile is the on-disk shape of .meta.yaml; Checksum lives alongside
// Meta's other fields but isn't part of the Report, so it gets its own
// struct rather than overloading Meta.
type metaFile struct {
	Description string              `yaml:"description"`
	Destructive bool                `yaml:"destructive"`
	Checksum    string              `yaml:"checksum"`
	Report      *destructive.Report `yaml:"report,omitempty"`
}

// Discover walks fsys (rooted at the migrations directory) for
// subdirectories matching versionPattern, each expected to contain
// up.sql, down.sql, and .meta.yaml. Returns discovered files sorted by
// version ascending.
func Discover(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: reading migrations directory: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !versionPattern.MatchString(name) {
			continue
		}

		up, err := fs.ReadFile(fsys, name+"/up.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %q: reading up.sql: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, name+"/down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %q: reading down.sql: %w", name, err)
		}

		var mf metaFile
		if raw, err := fs.ReadFile(fsys, name+"/.meta.yaml"); err == nil {
			if err := yaml.Unmarshal(raw, &mf); err != nil {
				return nil, fmt.Errorf("migration %q: parsing .meta.yaml: %w", name, err)
			}
		}

		files = append(files, File{
			Version: name[:14],
			Name:    name,
			UpSQL:   string(up),
			DownSQL: string(down),
			Meta: Meta{
				Description: mf.Description,
				Destructive: mf.Destructive,
				Report:      mf.Report,
			},
			Checksum: mf.Checksum,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// Reconcile pairs discovered migration files against the applied-migration
// history, classifying each as Applied, Checksum-Drift, or Pending.
func Reconcile(files []File, applied []AppliedRecord) []PlannedMigration {
	byVersion := make(map[string]AppliedRecord, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	planned := make([]PlannedMigration, 0, len(files))
	for _, f := range files {
		rec, ok := byVersion[f.Version]
		switch {
		case !ok:
			planned = append(planned, PlannedMigration{File: f, Status: StatusPending})
		case rec.Checksum != f.Checksum:
			planned = append(planned, PlannedMigration{File: f, Status: StatusChecksumDrift})
		default:
			planned = append(planned, PlannedMigration{File: f, Status: StatusApplied})
		}
	}
	return planned
}

// Pending filters planned migrations down to those awaiting application,
// in ascending version order.
func Pending(planned []PlannedMigration) []PlannedMigration {
	var pending []PlannedMigration
	for _, p := range planned {
		if p.Status == StatusPending {
			pending = append(pending, p)
		}
	}
	return pending
}

// RollbackPlan selects the most recently applied n migrations, in reverse
// (most-recent-first) order, for rollback.
func RollbackPlan(planned []PlannedMigration, n int) []PlannedMigration {
	var applied []PlannedMigration
	for _, p := range planned {
		if p.Status == StatusApplied {
			applied = append(applied, p)
		}
	}
	sort.Slice(applied, func(i, j int) bool { return applied[i].File.Version > applied[j].File.Version })
	if n > len(applied) {
		n = len(applied)
	}
	return applied[:n]
}

// ChecksumDriftError reports that one or more discovered migrations have
// drifted from their recorded checksum.
type ChecksumDriftError struct {
	Versions []string
}

func (e *ChecksumDriftError) Error() string {
	return fmt.Sprintf("migration checksum drift detected for version(s): %s", strings.Join(e.Versions, ", "))
}

// CheckDrift returns a ChecksumDriftError if any planned migration shows
// checksum drift, or nil otherwise.
func CheckDrift(planned []PlannedMigration) error {
	var drifted []string
	for _, p := range planned {
		if p.Status == StatusChecksumDrift {
			drifted = append(drifted, p.File.Version)
		}
	}
	if len(drifted) == 0 {
		return nil
	}
	return &ChecksumDriftError{Versions: drifted}
}
