package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one versioned SQL script pair named NNNNNN_name.{up,down}.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// embedded is parsed once; a malformed file set is a build defect, so it panics.
var embedded = mustParseMigrations(migrationFS, "migrations")

func mustParseMigrations(fsys fs.FS, dir string) []Migration {
	migs, err := ParseMigrations(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return migs
}

// ParseMigrations reads every up/down pair under dir, ordered by version.
// A missing down script or a repeated version is an error.
func ParseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(ups))
	out := make([]Migration, 0, len(ups))
	for _, upPath := range ups {
		base := strings.TrimSuffix(path.Base(upPath), ".up.sql")
		rawVersion, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("%s: expected NNNNNN_name.up.sql", upPath)
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("%s: version must be a positive number", upPath)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("%s: version %d already used by %s", upPath, version, prev)
		}
		seen[version] = upPath

		up, err := fs.ReadFile(fsys, upPath)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("%s: missing down script: %w", upPath, err)
		}

		out = append(out, Migration{Version: version, Name: name, Up: string(up), Down: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() []Migration {
	return append([]Migration(nil), embedded...)
}

// LookupMigration returns the embedded migration with the given version.
func LookupMigration(version int) (Migration, bool) {
	for _, m := range embedded {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}
