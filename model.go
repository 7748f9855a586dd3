// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"ariga.io/atlas/sql/schema"
)

// ModelBuilder aggregates mapping registrations and builds a model from them.
type ModelBuilder struct {
	// Configurations receives entity and complex type mappings.
	Configurations *ConfigurationRegistrar

	logger *slog.Logger
}

// NewModelBuilder returns an empty model builder. A nil logger uses slog.Default().
func NewModelBuilder(logger *slog.Logger) *ModelBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelBuilder{Configurations: newConfigurationRegistrar(), logger: logger}
}

// Build maps every registered entity onto the column types of the
// connection's dialect. The connection is not opened.
func (b *ModelBuilder) Build(conn *Connection) (*Model, error) {
	reg := b.Configurations
	m := &Model{dialect: conn.dialect}
	for _, cfg := range reg.entities {
		e, err := buildEntity(cfg, reg, conn.dialect)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("mapped entity", "type", cfg.modelType.String(), "table", e.tableName, "columns", len(e.props))
		m.entities = append(m.entities, e)
	}
	m.complexTypes = reg.ComplexTypes()
	return m, nil
}

// Model is a built, not yet validated, model.
type Model struct {
	dialect      *dialect
	entities     []*Entity
	complexTypes []reflect.Type
}

// Compile validates the model and freezes it.
func (m *Model) Compile() (*CompiledModel, error) {
	cm := &CompiledModel{
		dialect:      m.dialect,
		entities:     m.entities,
		complexTypes: m.complexTypes,
		byType:       make(map[reflect.Type]*Entity, len(m.entities)),
	}
	tables := make(map[string]reflect.Type)
	for _, e := range m.entities {
		if len(e.keys) == 0 {
			return nil, fmt.Errorf("%s: no key defined (use HasKey or an ID field): %w", e.goType, ErrInvalidMapping)
		}
		if prev, ok := tables[e.tableName]; ok {
			return nil, fmt.Errorf("%s and %s both map to table %q: %w", prev, e.goType, e.tableName, ErrInvalidMapping)
		}
		tables[e.tableName] = e.goType
		cm.byType[e.goType] = e
	}
	return cm, nil
}

// CompiledModel is the immutable result of a build. It is safe to share.
type CompiledModel struct {
	dialect      *dialect
	entities     []*Entity
	complexTypes []reflect.Type
	byType       map[reflect.Type]*Entity
}

// Dialect returns the dialect the model was built for.
func (m *CompiledModel) Dialect() string {
	return m.dialect.name
}

// Entities returns the mapped entities in registration order.
func (m *CompiledModel) Entities() []*Entity {
	return append([]*Entity(nil), m.entities...)
}

// ComplexTypes returns the registered complex types.
func (m *CompiledModel) ComplexTypes() []reflect.Type {
	return append([]reflect.Type(nil), m.complexTypes...)
}

// Entity returns the entity mapped for t. Pointer types are dereferenced.
func (m *CompiledModel) Entity(t reflect.Type) (*Entity, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	e, ok := m.byType[t]
	return e, ok
}

// EntityOf returns the entity mapped for T.
func EntityOf[T any](m *CompiledModel) (*Entity, bool) {
	return m.Entity(reflect.TypeFor[T]())
}

// Schema renders the model as a new atlas schema with the given name.
// Every call returns fresh values; changing them does not change the model.
func (m *CompiledModel) Schema(name string) *schema.Schema {
	s := schema.New(name)
	for _, e := range m.entities {
		s.AddTables(e.table())
	}
	return s
}

// Entity describes how one Go type maps onto a table.
type Entity struct {
	goType    reflect.Type
	tableName string
	props     []*Property
	keys      []*Property
	indexes   []index
}

type index struct {
	name    string
	unique  bool
	columns []string
}

// Type returns the mapped Go type.
func (e *Entity) Type() reflect.Type {
	return e.goType
}

// Name returns the Go type name.
func (e *Entity) Name() string {
	return e.goType.Name()
}

// Table returns the table name.
func (e *Entity) Table() string {
	return e.tableName
}

// Properties returns the mapped properties in field order.
func (e *Entity) Properties() []*Property {
	return append([]*Property(nil), e.props...)
}

// Keys returns the primary key properties.
func (e *Entity) Keys() []*Property {
	return append([]*Property(nil), e.keys...)
}

// Property returns the property for a field path such as "Title" or "Address.City".
func (e *Entity) Property(field string) (*Property, bool) {
	for _, p := range e.props {
		if p.name == field {
			return p, true
		}
	}
	return nil, false
}

// table renders the entity as a new atlas table.
func (e *Entity) table() *schema.Table {
	t := schema.NewTable(e.tableName)
	byColumn := make(map[string]*schema.Column, len(e.props))
	for _, p := range e.props {
		c := schema.NewColumn(p.column).SetType(p.schemaType()).SetNull(p.nullable)
		byColumn[p.column] = c
		t.AddColumns(c)
	}
	var pk []*schema.Column
	for _, k := range e.keys {
		pk = append(pk, byColumn[k.column])
	}
	t.SetPrimaryKey(schema.NewPrimaryKey(pk...))
	for _, ix := range e.indexes {
		var cols []*schema.Column
		for _, name := range ix.columns {
			cols = append(cols, byColumn[name])
		}
		t.AddIndexes(schema.NewIndex(ix.name).SetUnique(ix.unique).AddColumns(cols...))
	}
	return t
}

// Property describes one mapped field.
type Property struct {
	name      string
	column    string
	index     []int
	goType    reflect.Type
	kind      scalarKind
	nullable  bool
	required  bool
	key       bool
	maxLength int
	rawType   string
	types     func(scalarKind, int) schema.Type
}

// Name returns the field path, e.g. "Address.City".
func (p *Property) Name() string { return p.name }

// Column returns the column name.
func (p *Property) Column() string { return p.column }

// Nullable reports whether the column accepts NULL.
func (p *Property) Nullable() bool { return p.nullable }

// Required reports whether validation requires a value.
func (p *Property) Required() bool { return p.required }

// IsKey reports whether the property is part of the primary key.
func (p *Property) IsKey() bool { return p.key }

// MaxLength returns the configured maximum length, or 0.
func (p *Property) MaxLength() int { return p.maxLength }

// GoType returns the field type.
func (p *Property) GoType() reflect.Type { return p.goType }

// ColumnType returns the column type as written in DDL.
func (p *Property) ColumnType() string { return formatType(p.schemaType()) }

func (p *Property) schemaType() schema.Type {
	t := p.types(p.kind, p.maxLength)
	if p.rawType != "" {
		return overrideType(t, p.rawType)
	}
	return t
}

// entityBuilder carries the state of buildEntity across nested complex types.
type entityBuilder struct {
	cfg     *mappingConfig
	reg     *ConfigurationRegistrar
	dialect *dialect
	entity  *Entity
	used    map[string]bool
}

func buildEntity(cfg *mappingConfig, reg *ConfigurationRegistrar, d *dialect) (*Entity, error) {
	t := cfg.modelType
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: entity must be a struct: %w", t, ErrInvalidMapping)
	}
	e := &Entity{goType: t, tableName: cfg.table}
	if e.tableName == "" {
		e.tableName = tableName(t)
	}
	b := &entityBuilder{cfg: cfg, reg: reg, dialect: d, entity: e, used: make(map[string]bool)}
	if err := b.collect(t, nil, "", "", nil, 0); err != nil {
		return nil, err
	}

	// every configured field must exist
	for field := range cfg.props {
		if !b.used[field] {
			return nil, fmt.Errorf("%s: property %q: no such field: %w", t, field, ErrInvalidMapping)
		}
	}

	if err := b.keys(); err != nil {
		return nil, err
	}
	if err := b.indexes(); err != nil {
		return nil, err
	}
	return e, nil
}

// collect walks the fields of t. path is the field path of t inside the
// entity, prefix the column prefix and owner the complex type mapping
// whose fields are being walked, if any.
func (b *entityBuilder) collect(t reflect.Type, index []int, path, prefix string, owner *mappingConfig, depth int) error {
	if depth > 8 {
		return fmt.Errorf("%s: complex types nested too deeply at %q: %w", b.cfg.modelType, path, ErrInvalidMapping)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)
		ft := f.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
			nullable = true
		}

		if f.Anonymous && ft.Kind() == reflect.Struct && !b.reg.has(ft) {
			// promoted fields belong to the outer type, even when the
			// embedded type itself is unexported
			if err := b.collect(ft, fieldIndex, path, prefix, owner, depth+1); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if path != "" {
			fieldPath = path + "." + f.Name
		}
		if b.cfg.ignored[fieldPath] || (owner != nil && owner.ignored[f.Name]) {
			b.used[fieldPath] = true
			continue
		}

		override := b.cfg.props[fieldPath]
		if override != nil {
			b.used[fieldPath] = true
		}
		var ownerOverride *PropertyConfiguration
		if owner != nil {
			ownerOverride = owner.props[f.Name]
		}

		column := prefix + columnName(f.Name)
		if ownerOverride != nil && ownerOverride.column != "" {
			column = prefix + ownerOverride.column
		}
		if override != nil && override.column != "" {
			column = override.column
		}

		if ct, ok := b.reg.byType[ft]; ok && ct.kind == complexKind {
			if err := b.collect(ft, fieldIndex, fieldPath, column+"_", ct, depth+1); err != nil {
				return err
			}
			continue
		}

		kind, ok := classify(ft)
		if !ok {
			// navigation properties and other non-scalar fields are not mapped
			continue
		}

		p := &Property{
			name:     fieldPath,
			column:   column,
			index:    fieldIndex,
			goType:   f.Type,
			kind:     kind,
			nullable: nullable,
			types:    b.dialect.types,
		}
		for _, o := range []*PropertyConfiguration{ownerOverride, override} {
			if o == nil {
				continue
			}
			if o.required != nil {
				p.required = *o.required
				p.nullable = !*o.required
			}
			if o.maxLength != 0 {
				p.maxLength = o.maxLength
			}
			if o.columnType != "" {
				p.rawType = o.columnType
			}
		}
		b.entity.props = append(b.entity.props, p)
	}
	return nil
}

// keys resolves the primary key: the configured fields, or an "ID" or
// "<Type>ID" field by convention.
func (b *entityBuilder) keys() error {
	e := b.entity
	names := b.cfg.keys
	if len(names) == 0 {
		for _, candidate := range []string{"ID", e.goType.Name() + "ID"} {
			if _, ok := e.Property(candidate); ok {
				names = []string{candidate}
				break
			}
		}
	}
	for _, name := range names {
		p, ok := e.Property(name)
		if !ok {
			return fmt.Errorf("%s: key %q: no such property: %w", e.goType, name, ErrInvalidMapping)
		}
		p.key = true
		p.nullable = false
		e.keys = append(e.keys, p)
	}
	return nil
}

func (b *entityBuilder) indexes() error {
	e := b.entity
	for _, ix := range b.cfg.indexes {
		if len(ix.fields) == 0 {
			return fmt.Errorf("%s: index without fields: %w", e.goType, ErrInvalidMapping)
		}
		var columns []string
		for _, field := range ix.fields {
			p, ok := e.Property(field)
			if !ok {
				return fmt.Errorf("%s: index on %q: no such property: %w", e.goType, field, ErrInvalidMapping)
			}
			columns = append(columns, p.column)
		}
		name := ix.name
		if name == "" {
			name = e.tableName + "_" + strings.Join(columns, "_")
		}
		e.indexes = append(e.indexes, index{name: name, unique: ix.unique, columns: columns})
	}
	return nil
}
