// Package db embeds the SQL migrations so binaries can apply them without a
// checkout of the repository.
package db

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed postgres/migrations/*.up.sql
var postgresMigrations embed.FS

// Migration is one forward migration file.
type Migration struct {
	Name string
	SQL  string
}

// PostgresMigrations returns the embedded up migrations in filename order.
func PostgresMigrations() ([]Migration, error) {
	names, err := fs.Glob(postgresMigrations, "postgres/migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := postgresMigrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: name, SQL: string(body)})
	}
	return out, nil
}
