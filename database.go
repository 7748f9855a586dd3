// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"context"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/schema"
)

// Database runs database-level operations over the connection of a context.
type Database struct {
	c *DbContext
}

// Connection returns the connection the context was created with.
func (d *Database) Connection() *Connection {
	return d.c.conn
}

// Exists reports whether the database exists. For SQLite files it checks
// the file without creating it; for servers it pings over the context's
// connection and reports false if the ping fails.
func (d *Database) Exists(ctx context.Context) (bool, error) {
	conn := d.c.conn
	if conn.Family() == SQLite && conn.path != "" {
		return fileExists(conn.path), nil
	}
	if conn.IsMemory() {
		return true, nil
	}
	sc, err := d.c.Conn(ctx)
	if err != nil {
		return false, err
	}
	if err := sc.PingContext(ctx); err != nil {
		d.c.logger.Debug("database ping failed", "dialect", conn.Dialect(), "error", err)
		return false, nil
	}
	return true, nil
}

// driver opens an atlas driver on the context's connection.
func (d *Database) driver(ctx context.Context) (migrate.Driver, error) {
	sc, err := d.c.Conn(ctx)
	if err != nil {
		return nil, err
	}
	drv, err := d.c.conn.dialect.atlas(sc)
	if err != nil {
		return nil, fmt.Errorf("open %s driver: %w", d.c.conn.Dialect(), err)
	}
	return drv, nil
}

// addTables returns one AddTable change per table of the model.
func (d *Database) addTables(name string) []schema.Change {
	var changes []schema.Change
	for _, t := range d.c.model.Schema(name).Tables {
		changes = append(changes, &schema.AddTable{T: t})
	}
	return changes
}

// unqualified plans statements without a schema prefix.
func unqualified(o *migrate.PlanOptions) {
	q := ""
	o.SchemaQualifier = &q
}

// CreateScript returns the DDL that creates the model's tables.
func (d *Database) CreateScript(ctx context.Context) (string, error) {
	drv, err := d.driver(ctx)
	if err != nil {
		return "", err
	}
	plan, err := drv.PlanChanges(ctx, "create", d.addTables(""), unqualified)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	var sb strings.Builder
	for _, c := range plan.Changes {
		sb.WriteString(c.Cmd)
		sb.WriteString(";\n")
	}
	return sb.String(), nil
}

// CreateIfNotExists creates the model's tables unless one of them already
// exists. It reports whether the tables were created.
func (d *Database) CreateIfNotExists(ctx context.Context) (bool, error) {
	drv, err := d.driver(ctx)
	if err != nil {
		return false, err
	}
	current, err := drv.InspectSchema(ctx, "", nil)
	if err != nil {
		return false, fmt.Errorf("inspect: %w", err)
	}
	for _, e := range d.c.model.entities {
		if _, ok := current.Table(e.tableName); ok {
			d.c.logger.Info("database already has model tables", "table", e.tableName)
			return false, nil
		}
	}
	changes := d.addTables("")
	if len(changes) == 0 {
		return false, nil
	}
	if err := drv.ApplyChanges(ctx, changes, unqualified); err != nil {
		return false, fmt.Errorf("create tables: %w", err)
	}
	d.c.logger.Info("created model tables", "dialect", d.c.conn.Dialect(), "tables", len(changes))
	return true, nil
}

// CompatibleWithModel reports whether every table of the model exists and
// matches its mapping. Tables outside the model are not considered.
func (d *Database) CompatibleWithModel(ctx context.Context) (bool, error) {
	drv, err := d.driver(ctx)
	if err != nil {
		return false, err
	}
	current, err := drv.InspectSchema(ctx, "", nil)
	if err != nil {
		return false, fmt.Errorf("inspect: %w", err)
	}
	desired := d.c.model.Schema(current.Name)
	for _, want := range desired.Tables {
		have, ok := current.Table(want.Name)
		if !ok {
			return false, nil
		}
		changes, err := drv.TableDiff(have, want)
		if err != nil {
			return false, fmt.Errorf("diff %s: %w", want.Name, err)
		}
		if len(changes) > 0 {
			d.c.logger.Debug("table differs from model", "table", want.Name, "changes", len(changes))
			return false, nil
		}
	}
	return true, nil
}

// Delete removes a SQLite database file and its WAL sidecar files after
// releasing the context's connection and closing the factory's pool.
// The next use of the connection creates a new file.
// It reports whether a file was removed.
// Other dialects and in-memory databases return ErrUnsupported.
func (d *Database) Delete(ctx context.Context) (bool, error) {
	conn := d.c.conn
	if conn.Family() != SQLite || conn.path == "" {
		return false, fmt.Errorf("delete %s database: %w", conn.Dialect(), ErrUnsupported)
	}
	if err := d.c.Close(); err != nil {
		return false, err
	}
	// an open pool would keep the unlinked file alive
	if err := conn.reset(); err != nil {
		return false, fmt.Errorf("close pool: %w", err)
	}
	d.c.logger.Info("deleting database", "path", conn.path)
	return deleteDatabaseFiles(conn.path)
}
