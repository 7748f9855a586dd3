// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
)

// Factory creates contexts that share one compiled model and connection pool.
//
// The flags are read on every Create, so changing them affects the
// contexts created afterwards.
type Factory struct {
	AutoDetectChangesEnabled bool
	LazyLoadingEnabled       bool
	ProxyCreationEnabled     bool
	ValidateOnSaveEnabled    bool

	contextType reflect.Type
	connString  string
	conn        *Connection
	model       *CompiledModel
	logger      *slog.Logger
}

// Create returns a new context bound to the factory's model and connection.
func (f *Factory) Create() (DataContext, error) {
	v := reflect.New(f.contextType)
	dc := v.Interface().(DataContext)
	base := dc.dbContext()
	if base == nil {
		// embedded as *DbContext
		field := v.Elem().FieldByName("DbContext")
		if !field.IsValid() || !field.CanSet() || field.Type() != reflect.TypeFor[*DbContext]() {
			return nil, fmt.Errorf("%s: no DbContext to bind: %w", f.contextType, ErrInvalidContextType)
		}
		field.Set(reflect.ValueOf(&DbContext{}))
		base = dc.dbContext()
	}

	base.id = uuid.New()
	base.model = f.model
	base.conn = f.conn
	base.logger = f.logger
	base.config = ContextConfiguration{
		AutoDetectChangesEnabled: f.AutoDetectChangesEnabled,
		LazyLoadingEnabled:       f.LazyLoadingEnabled,
		ProxyCreationEnabled:     f.ProxyCreationEnabled,
		ValidateOnSaveEnabled:    f.ValidateOnSaveEnabled,
	}

	if err := bindSets(v.Elem(), base); err != nil {
		return nil, err
	}
	if in, ok := dc.(Initializer); ok {
		if err := in.Init(); err != nil {
			return nil, fmt.Errorf("init %s: %w", f.contextType, err)
		}
	}
	f.logger.Debug("created context", "context", f.contextType.String(), "id", base.id)
	return dc, nil
}

// Create returns a new context of type C from the factory.
func Create[C DataContext](f *Factory) (C, error) {
	var zero C
	dc, err := f.Create()
	if err != nil {
		return zero, err
	}
	c, ok := dc.(C)
	if !ok {
		return zero, fmt.Errorf("factory creates %T, not %T: %w", dc, zero, ErrInvalidContextType)
	}
	return c, nil
}

// Model returns the compiled model.
func (f *Factory) Model() *CompiledModel {
	return f.model
}

// ContextType returns the struct type of the contexts the factory creates.
func (f *Factory) ContextType() reflect.Type {
	return f.contextType
}

// ConnectionString returns the connection string the factory was built with.
func (f *Factory) ConnectionString() string {
	return f.connString
}

// Connection returns the factory's connection.
func (f *Factory) Connection() *Connection {
	return f.conn
}

// Close closes the connection pool. Contexts must be closed first.
func (f *Factory) Close() error {
	return f.conn.Close()
}
