// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// dialect binds a connection string scheme to a database/sql driver,
// a column type map and an atlas driver.
type dialect struct {
	name   string
	driver string
	family string
	// dsn converts the part after the scheme into a driver DSN.
	dsn   func(rest string) (string, error)
	types func(k scalarKind, size int) schema.Type
	atlas func(schema.ExecQuerier) (migrate.Driver, error)
}

var (
	dialectsMu sync.Mutex
	dialects   = map[string]*dialect{
		SQLite: {
			name: SQLite, driver: sqliteDriverName, family: SQLite,
			types: sqliteType,
			atlas: sqlite.Open,
		},
		MySQL: {
			name: MySQL, driver: "mysql", family: MySQL,
			dsn:   mysqlDSN,
			types: mysqlType,
			atlas: mysql.Open,
		},
		Postgres: {
			name: Postgres, driver: "postgres", family: Postgres,
			dsn:   postgresDSN,
			types: postgresType,
			atlas: postgres.Open,
		},
	}
	schemeAliases = map[string]string{
		"sqlite3":    SQLite,
		"postgresql": Postgres,
	}
)

// RegisterDialect adds a connection string scheme served by a database/sql
// driver and typed like an existing dialect. The part of the connection
// string after "name:" is passed to the driver unchanged.
// It must be called before the connection factory is initialized.
func RegisterDialect(name, driverName, like string) error {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	// checked under the lock the snapshot takes, so a dialect is either
	// rejected or part of the snapshot
	if connectionFactoryBuilt {
		return fmt.Errorf("register %q: %w", name, ErrAlreadyInitialized)
	}
	base, ok := dialects[like]
	if !ok {
		return fmt.Errorf("register %q like %q: %w", name, like, ErrUnknownDialect)
	}
	if _, ok := dialects[name]; ok {
		return fmt.Errorf("register %q: dialect already registered", name)
	}
	dialects[name] = &dialect{
		name:   name,
		driver: driverName,
		family: base.family,
		types:  base.types,
		atlas:  base.atlas,
	}
	return nil
}

// connectionFactory opens connections for dialects whose driver was
// registered when the factory was built.
type connectionFactory struct {
	dialects  map[string]*dialect
	available map[string]bool
}

// defaultConnections builds the connection factory once. connectionFactoryBuilt
// is guarded by dialectsMu.
var (
	connectionFactoryBuilt bool
	defaultConnections     = sync.OnceValue(func() *connectionFactory {
		dialectsMu.Lock()
		defer dialectsMu.Unlock()
		connectionFactoryBuilt = true
		f := &connectionFactory{
			dialects:  make(map[string]*dialect, len(dialects)),
			available: make(map[string]bool),
		}
		drivers := sql.Drivers()
		for name, d := range dialects {
			f.dialects[name] = d
			f.available[name] = slices.Contains(drivers, d.driver)
		}
		return f
	})
)

// Initialize builds the process-wide connection factory. It snapshots the
// registered database/sql drivers: a dialect whose driver is not imported by
// then reports ErrDriverNotRegistered for the rest of the process.
// Calling it is optional; the first Build initializes the factory otherwise.
// It returns the dialects that are unavailable.
func Initialize() []string {
	f := defaultConnections()
	var missing []string
	for name, ok := range f.available {
		if !ok {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
}

// connect parses a connection string into a lazily opened connection.
func (f *connectionFactory) connect(connString string, cfg Config) (*Connection, error) {
	scheme, rest, ok := strings.Cut(connString, ":")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("%q: missing dialect scheme: %w", redact(connString), ErrUnknownDialect)
	}
	scheme = strings.ToLower(scheme)
	if alias, ok := schemeAliases[scheme]; ok {
		scheme = alias
	}
	d, ok := f.dialects[scheme]
	if !ok {
		return nil, fmt.Errorf("%q: %w", scheme, ErrUnknownDialect)
	}
	if !f.available[scheme] {
		return nil, fmt.Errorf("dialect %q needs driver %q: %w", scheme, d.driver, ErrDriverNotRegistered)
	}

	conn := &Connection{dialect: d, logger: cfg.Logger}
	switch {
	case d.name == SQLite:
		path := strings.TrimPrefix(rest, "//")
		if path == ":memory:" {
			if cfg.isProduction() && !cfg.AllowMemoryInProduction {
				return nil, fmt.Errorf("%s=production: %w", cfg.ProductionEnvVar, ErrMemoryInProduction)
			}
			conn.memory = true
			conn.dsn = buildDSN(memoryName(), memoryPragmas)
		} else {
			if err := validatePersistentPath(path); err != nil {
				return nil, err
			}
			conn.path = path
			conn.dsn = buildDSN(path, persistentPragmas)
		}
	case d.dsn != nil:
		dsn, err := d.dsn(rest)
		if err != nil {
			return nil, err
		}
		conn.dsn = dsn
	default:
		conn.dsn = rest
	}
	return conn, nil
}

// mysqlDSN validates a go-sql-driver DSN and forces parseTime.
func mysqlDSN(rest string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(strings.TrimPrefix(rest, "//"))
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("mysql dsn: missing database name")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// postgresDSN converts a postgres URL into a key=value DSN.
func postgresDSN(rest string) (string, error) {
	dsn, err := pq.ParseURL("postgres:" + rest)
	if err != nil {
		return "", fmt.Errorf("postgres url: %w", err)
	}
	return dsn, nil
}

// redact hides the credentials of a connection string.
func redact(connString string) string {
	if i := strings.Index(connString, "@"); i >= 0 {
		return "***" + connString[i:]
	}
	return connString
}

// Connection is a lazily opened database/sql pool for one connection string.
type Connection struct {
	dialect *dialect
	dsn     string
	path    string
	memory  bool
	logger  *slog.Logger

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Dialect returns the dialect name, e.g. "sqlite".
func (c *Connection) Dialect() string {
	return c.dialect.name
}

// Family returns the dialect the connection is typed like.
func (c *Connection) Family() string {
	return c.dialect.family
}

// IsMemory reports whether the connection is an in-memory SQLite database.
func (c *Connection) IsMemory() bool {
	return c.memory
}

// Path returns the file of a persistent SQLite database.
func (c *Connection) Path() string {
	return c.path
}

// DSN returns the driver data source name.
func (c *Connection) DSN() string {
	return c.dsn
}

// DB opens the pool on first use. It returns ErrConnectionClosed after Close.
func (c *Connection) DB() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.db != nil {
		return c.db, nil
	}
	c.logger.Debug("opening connection", "dialect", c.dialect.name, "driver", c.dialect.driver)
	db, err := sql.Open(c.dialect.driver, c.dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if c.dialect.family == SQLite {
		// SQLite works best with limited connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	c.db = db
	return db, nil
}

// reset closes the pool; the next DB call opens a new one.
func (c *Connection) reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Close closes the pool. The connection cannot be reopened.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
