// internal/writers/sqlite.go
package writers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	_ "modernc.org/sqlite"

	"geneannot/pkg/api"
)

func init() {
	Register(Format{Name: "sqlite", NeedsPath: true, Write: writeSQLite})
}

const sqliteSchema = `
CREATE TABLE annotation (
	idx    INTEGER PRIMARY KEY,
	record TEXT NOT NULL
);
CREATE TABLE metadata (
	prefix TEXT PRIMARY KEY,
	json   TEXT NOT NULL
);`

// writeSQLite replaces t.Path with a database holding one JSON record per
// row and one metadata row per prefix.
func writeSQLite(t Target, ann *api.AnnotationV1) (err error) {
	if rmErr := os.Remove(t.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return rmErr
	}
	db, err := sql.Open("sqlite", t.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", t.Path, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ins, err := tx.Prepare(`INSERT INTO annotation (idx, record) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()
	for i, r := range ann.Annotation {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("sqlite: record %d: %w", i, err)
		}
		if _, err := ins.Exec(i, string(b)); err != nil {
			return fmt.Errorf("sqlite: record %d: %w", i, err)
		}
	}

	prefixes := make([]string, 0, len(ann.Metadata))
	for p := range ann.Metadata {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		b, err := json.Marshal(ann.Metadata[p])
		if err != nil {
			return fmt.Errorf("sqlite: metadata %s: %w", p, err)
		}
		if _, err := tx.Exec(`INSERT INTO metadata (prefix, json) VALUES (?, ?)`, p, string(b)); err != nil {
			return fmt.Errorf("sqlite: metadata %s: %w", p, err)
		}
	}
	return tx.Commit()
}
