// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package modelinit bootstraps data contexts: it discovers mapping types,
// compiles them into a relational model and returns a factory that creates
// configured contexts sharing that model.
//
// The lifecycle is:
//   - WithContext validates the connection string and context type
//   - the Configuration collects catalogs of mapping types and flags
//   - Build discovers the mappings, compiles the model once and returns a Factory
//   - Factory.Create returns a new context per unit of work
//
// # Basic Usage
//
//	type Blog struct {
//	    ID    int64
//	    Title string
//	}
//
//	type BlogMapping struct {
//	    modelinit.EntityType[Blog]
//	}
//
//	func (m *BlogMapping) Configure() error {
//	    m.Property("Title").IsRequired().HasMaxLength(200)
//	    return nil
//	}
//
//	type BloggingContext struct {
//	    modelinit.DbContext
//	    Blogs *modelinit.Set[Blog]
//	}
//
//	func init() {
//	    modelinit.Register(BlogMapping{})
//	}
//
//	func main() {
//	    cfg, err := modelinit.WithContext[*BloggingContext]("sqlite:/var/lib/blog/blog.db")
//	    ...
//	    factory, err := cfg.AddMappingsFromPackageOf(BlogMapping{}).
//	        ValidateOnSaveEnabled(true).
//	        Build()
//	    ...
//	    db, err := modelinit.Create[*BloggingContext](factory)
//	    defer db.Close()
//	}
//
// # Mapping Discovery
//
// Mapping types are found in catalogs: explicit ones built with NewCatalog,
// or the per-package catalogs filled by Register. A type is a mapping if it
// is an exported struct that embeds EntityType[T] or ComplexType[T], at any
// depth. The shallowest embedding wins, and a type matching both shapes is
// an entity mapping. Discovery allocates the zero value and calls
// Configure if the type has one; a failure aborts the build.
//
// # Driver Support
//
// Connection strings name their dialect: "sqlite:", "mysql://" or
// "postgres://". MySQL and PostgreSQL drivers are linked by this package.
// For SQLite you must import a driver in your application:
//
//	import _ "modernc.org/sqlite"           // default
//	import _ "github.com/mattn/go-sqlite3"  // with -tags mattn
//
// The drivers available are fixed when the connection factory is
// initialized, explicitly by Initialize or by the first Build.
//
// # Configuration
//
// Key Config fields:
//   - ConnectionString: dialect-prefixed connection string
//   - ProductionEnvVar: env var to check for production mode (default: "ENV")
//   - AllowMemoryInProduction: permit sqlite::memory: in production
//   - the four behaviour flags copied onto the factory
//
// LoadConfig reads the same fields from a YAML file.
package modelinit
