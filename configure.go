// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"log/slog"
	"reflect"
)

var dataContextType = reflect.TypeFor[DataContext]()

// WithContext starts the configuration of a factory for context type C,
// which must be a pointer to a struct embedding DbContext.
func WithContext[C DataContext](connString string) (*Configuration, error) {
	return WithContextType(reflect.TypeFor[C](), connString)
}

// WithDefaultContext starts the configuration of a factory for plain DbContext values.
func WithDefaultContext(connString string) (*Configuration, error) {
	return WithContextType(reflect.TypeFor[*DbContext](), connString)
}

// WithContextType is WithContext for a context type known only at run time.
// Both the struct type and the pointer type are accepted.
func WithContextType(contextType reflect.Type, connString string) (*Configuration, error) {
	return WithConfigType(contextType, Config{ConnectionString: connString})
}

// WithConfig starts the configuration of a factory for C from a Config,
// typically one read by LoadConfig.
func WithConfig[C DataContext](cfg Config) (*Configuration, error) {
	return WithConfigType(reflect.TypeFor[C](), cfg)
}

// WithConfigType is WithConfig for a context type known only at run time.
func WithConfigType(contextType reflect.Type, cfg Config) (*Configuration, error) {
	if cfg.ConnectionString == "" {
		return nil, &ArgumentError{Param: "connectionString", Err: ErrEmptyConnectionString}
	}
	t, ok := contextStruct(contextType)
	if !ok {
		return nil, &ArgumentError{Param: "contextType", Err: ErrInvalidContextType}
	}
	return &Configuration{
		contextType: t,
		cfg:         cfg,
		seen:        make(map[*Catalog]bool),
	}, nil
}

// contextStruct returns the struct type behind a context type.
func contextStruct(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, reflect.PointerTo(t).Implements(dataContextType)
}

// Configuration collects the settings of a factory. Its methods return
// the receiver so calls can be chained. It is consumed by Build.
type Configuration struct {
	contextType reflect.Type
	cfg         Config
	catalogs    []*Catalog
	packages    []string
	seen        map[*Catalog]bool
	built       bool
}

// AddMappingsFrom adds a catalog to the set scanned for mappings.
func (c *Configuration) AddMappingsFrom(catalog *Catalog) *Configuration {
	if catalog != nil && !c.seen[catalog] {
		c.seen[catalog] = true
		c.catalogs = append(c.catalogs, catalog)
	}
	return c
}

// AddMappingsFromPackage scans the types registered with Register by the
// package with the given import path.
func (c *Configuration) AddMappingsFromPackage(pkgPath string) *Configuration {
	c.packages = append(c.packages, pkgPath)
	return c
}

// AddMappingsFromPackageOf scans the package that declares the sample's type.
// The sample may be a value, a pointer or a reflect.Type.
func (c *Configuration) AddMappingsFromPackageOf(sample any) *Configuration {
	t := typeOfSample(sample)
	if t == nil {
		return c
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return c.AddMappingsFromPackage(t.PkgPath())
}

// AutoDetectChangesEnabled sets the initial auto-detect-changes flag of the factory.
func (c *Configuration) AutoDetectChangesEnabled(value bool) *Configuration {
	c.cfg.AutoDetectChangesEnabled = value
	return c
}

// LazyLoadingEnabled sets the initial lazy-loading flag of the factory.
func (c *Configuration) LazyLoadingEnabled(value bool) *Configuration {
	c.cfg.LazyLoadingEnabled = value
	return c
}

// ProxyCreationEnabled sets the initial proxy-creation flag of the factory.
func (c *Configuration) ProxyCreationEnabled(value bool) *Configuration {
	c.cfg.ProxyCreationEnabled = value
	return c
}

// ValidateOnSaveEnabled sets the initial validate-on-save flag of the factory.
func (c *Configuration) ValidateOnSaveEnabled(value bool) *Configuration {
	c.cfg.ValidateOnSaveEnabled = value
	return c
}

// AllowMemoryInProduction permits in-memory SQLite databases in production.
func (c *Configuration) AllowMemoryInProduction(value bool) *Configuration {
	c.cfg.AllowMemoryInProduction = value
	return c
}

// Logger sets the logger of the build and of the factory's contexts.
func (c *Configuration) Logger(logger *slog.Logger) *Configuration {
	c.cfg.Logger = logger
	return c
}

// Build discovers the mappings, compiles the model and returns the factory.
// A configuration builds at most one factory.
func (c *Configuration) Build() (*Factory, error) {
	if c.built {
		return nil, ErrConfigurationConsumed
	}
	cfg := c.cfg.defaults()
	logger := cfg.Logger

	builder := NewModelBuilder(logger)
	if err := discoverMappings(c.allCatalogs(), builder.Configurations, logger); err != nil {
		return nil, fmt.Errorf("discover mappings: %w", err)
	}
	if err := registerSets(c.contextType, builder.Configurations, logger); err != nil {
		return nil, fmt.Errorf("discover sets: %w", err)
	}

	conn, err := defaultConnections().connect(cfg.ConnectionString, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	model, err := builder.Build(conn)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	compiled, err := model.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile model: %w", err)
	}

	logger.Info("built data context factory",
		"context", c.contextType.String(),
		"dialect", conn.Dialect(),
		"entities", len(compiled.entities),
		"complex_types", len(compiled.complexTypes))

	c.built = true
	return &Factory{
		AutoDetectChangesEnabled: cfg.AutoDetectChangesEnabled,
		LazyLoadingEnabled:       cfg.LazyLoadingEnabled,
		ProxyCreationEnabled:     cfg.ProxyCreationEnabled,
		ValidateOnSaveEnabled:    cfg.ValidateOnSaveEnabled,
		contextType:              c.contextType,
		connString:               cfg.ConnectionString,
		conn:                     conn,
		model:                    compiled,
		logger:                   logger,
	}, nil
}

// allCatalogs returns the added catalogs followed by the package catalogs.
func (c *Configuration) allCatalogs() []*Catalog {
	catalogs := append([]*Catalog(nil), c.catalogs...)
	seen := make(map[*Catalog]bool, len(catalogs))
	for _, cat := range catalogs {
		seen[cat] = true
	}
	for _, pkg := range c.packages {
		cat, ok := PackageCatalog(pkg)
		if !ok || seen[cat] {
			continue
		}
		seen[cat] = true
		catalogs = append(catalogs, cat)
	}
	return catalogs
}
