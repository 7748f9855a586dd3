// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
)

// DataContext is implemented by *DbContext and by pointers to every struct
// that embeds DbContext.
type DataContext interface {
	dbContext() *DbContext
}

// Initializer is implemented by context types that finish their own
// construction. Init runs after the context is bound to its factory.
type Initializer interface {
	Init() error
}

// ContextConfiguration holds the behaviour flags of one context.
type ContextConfiguration struct {
	AutoDetectChangesEnabled bool
	LazyLoadingEnabled       bool
	ProxyCreationEnabled     bool
	ValidateOnSaveEnabled    bool
}

// DbContext is the unit of work created by a Factory. Context types embed it:
//
//	type BloggingContext struct {
//	    modelinit.DbContext
//	    Blogs *modelinit.Set[Blog]
//	}
//
// A DbContext is not safe for concurrent use.
type DbContext struct {
	id     uuid.UUID
	model  *CompiledModel
	conn   *Connection
	config ContextConfiguration
	logger *slog.Logger

	sqlConn *sql.Conn
}

func (c *DbContext) dbContext() *DbContext {
	return c
}

// ID identifies the context instance.
func (c *DbContext) ID() uuid.UUID {
	return c.id
}

// Model returns the compiled model shared by every context of the factory.
func (c *DbContext) Model() *CompiledModel {
	return c.model
}

// Configuration returns the context's flags. Changing them affects only this context.
func (c *DbContext) Configuration() *ContextConfiguration {
	return &c.config
}

// Conn returns the context's own connection, acquiring it from the pool on first use.
// SQLite pools hold one connection, so a second context blocks until the first is closed.
func (c *DbContext) Conn(ctx context.Context) (*sql.Conn, error) {
	if c.sqlConn != nil {
		return c.sqlConn, nil
	}
	db, err := c.conn.DB()
	if err != nil {
		return nil, err
	}
	sc, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	c.logger.Debug("context acquired connection", "context", c.id)
	c.sqlConn = sc
	return sc, nil
}

// Database returns the database operations of the context.
func (c *DbContext) Database() *Database {
	return &Database{c: c}
}

// Close releases the context's connection. A later use of the context acquires a new one.
func (c *DbContext) Close() error {
	if c.sqlConn == nil {
		return nil
	}
	err := c.sqlConn.Close()
	c.sqlConn = nil
	return err
}

// Set gives typed access to the mapping of T from a context.
// Exported *Set[T] fields of a context type are populated by Factory.Create,
// and T is mapped by convention if no mapping for it was discovered.
type Set[T any] struct {
	ctx    *DbContext
	entity *Entity
}

// entitySet is implemented by *Set[T].
type entitySet interface {
	entityType() reflect.Type
	bind(c *DbContext, e *Entity)
}

var entitySetType = reflect.TypeFor[entitySet]()

func (s *Set[T]) entityType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (s *Set[T]) bind(c *DbContext, e *Entity) {
	s.ctx, s.entity = c, e
}

// SetOf returns a set for T bound to the context.
func SetOf[T any](c DataContext) (*Set[T], error) {
	base := c.dbContext()
	e, ok := EntityOf[T](base.model)
	if !ok {
		return nil, fmt.Errorf("%s: %w", reflect.TypeFor[T](), ErrNotMapped)
	}
	return &Set[T]{ctx: base, entity: e}, nil
}

// Entity returns the mapping of T.
func (s *Set[T]) Entity() *Entity {
	return s.entity
}

// TableName returns the table T is stored in.
func (s *Set[T]) TableName() string {
	return s.entity.Table()
}

// Context returns the context the set belongs to.
func (s *Set[T]) Context() *DbContext {
	return s.ctx
}

// Validate checks v against the rules of the model.
func (s *Set[T]) Validate(v *T) error {
	return validateEntity(s.entity, reflect.ValueOf(v))
}

// setFields returns the exported *Set[T] fields of a context struct.
func setFields(t reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && !f.Anonymous && f.Type.Implements(entitySetType) && f.Type.Kind() == reflect.Pointer {
			fields = append(fields, f)
		}
	}
	return fields
}

// registerSets maps the element type of every set field by convention
// unless a mapping for it was discovered.
func registerSets(contextType reflect.Type, reg *ConfigurationRegistrar, logger *slog.Logger) error {
	for _, f := range setFields(contextType) {
		t := reflect.New(f.Type.Elem()).Interface().(entitySet).entityType()
		if cfg, ok := reg.byType[t]; ok {
			if cfg.kind != entityKind {
				return fmt.Errorf("set %s: %s is a complex type: %w", f.Name, t, ErrInvalidMapping)
			}
			continue
		}
		logger.Debug("mapping set by convention", "set", f.Name, "type", t.String())
		if err := reg.add(newMappingConfig(entityKind, t), f.Type); err != nil {
			return err
		}
	}
	return nil
}

// bindSets allocates the set fields of a new context.
func bindSets(v reflect.Value, base *DbContext) error {
	for _, f := range setFields(v.Type()) {
		set := reflect.New(f.Type.Elem())
		es := set.Interface().(entitySet)
		e, ok := base.model.Entity(es.entityType())
		if !ok {
			return fmt.Errorf("set %s: %s: %w", f.Name, es.entityType(), ErrNotMapped)
		}
		es.bind(base, e)
		v.FieldByIndex(f.Index).Set(set)
	}
	return nil
}
