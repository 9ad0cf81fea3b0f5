package simserver

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

//go:embed schema.sql
var schemaSQL string

const selectColumns = `name, mass, x, y, vx, vy, radius, color, semi_major_axis, eccentricity`

// Catalog is the SQLite table of initial body states.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog at path and seeds it
// with the built-in solar system when the table is empty. Use ":memory:"
// for a throwaway catalog.
func OpenCatalog(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	c := &Catalog{db: db}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM celestial_bodies`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	if n == 0 {
		entries := world.DefaultCatalog()
		if err := c.Seed(ctx, entries); err != nil {
			db.Close()
			return nil, err
		}
		monitoring.Logf("seeded catalog %s with %d bodies", path, len(entries))
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error { return c.db.Close() }

// Seed inserts entries, replacing any with the same name.
func (c *Catalog) Seed(ctx context.Context, entries []world.CatalogEntry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO celestial_bodies (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			mass = excluded.mass, x = excluded.x, y = excluded.y,
			vx = excluded.vx, vy = excluded.vy, radius = excluded.radius,
			color = excluded.color, semi_major_axis = excluded.semi_major_axis,
			eccentricity = excluded.eccentricity`)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Name, e.Mass, e.X, e.Y, e.VX, e.VY,
			e.Radius, e.Color, e.SemiMajorAxis, e.Eccentricity); err != nil {
			return fmt.Errorf("seed %s: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

// All returns every body in insertion order.
func (c *Catalog) All(ctx context.Context) ([]world.CatalogEntry, error) {
	return c.query(ctx, `SELECT `+selectColumns+` FROM celestial_bodies ORDER BY id`)
}

// Select returns the named bodies in catalog order. Unknown names are an
// error.
func (c *Catalog) Select(ctx context.Context, names []string) ([]world.CatalogEntry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no bodies selected")
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	entries, err := c.query(ctx,
		`SELECT `+selectColumns+` FROM celestial_bodies WHERE name IN (`+placeholders+`) ORDER BY id`,
		args...)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(entries))
	for _, e := range entries {
		found[e.Name] = true
	}
	var unknown []string
	for _, n := range names {
		if !found[n] {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown bodies: %s", strings.Join(unknown, ", "))
	}
	return entries, nil
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]world.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var out []world.CatalogEntry
	for rows.Next() {
		var e world.CatalogEntry
		if err := rows.Scan(&e.Name, &e.Mass, &e.X, &e.Y, &e.VX, &e.VY,
			&e.Radius, &e.Color, &e.SemiMajorAxis, &e.Eccentricity); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return out, nil
}
