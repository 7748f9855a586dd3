// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"reflect"
)

type mappingKind int

const (
	entityKind mappingKind = iota
	complexKind
)

func (k mappingKind) String() string {
	if k == complexKind {
		return "complex type"
	}
	return "entity"
}

// mappingConfig is the state shared by EntityType and ComplexType.
type mappingConfig struct {
	kind      mappingKind
	modelType reflect.Type
	table     string
	keys      []string
	props     map[string]*PropertyConfiguration
	ignored   map[string]bool
	indexes   []*IndexConfiguration
}

func newMappingConfig(kind mappingKind, t reflect.Type) *mappingConfig {
	return &mappingConfig{
		kind:      kind,
		modelType: t,
		props:     make(map[string]*PropertyConfiguration),
		ignored:   make(map[string]bool),
	}
}

func (m *mappingConfig) property(field string) *PropertyConfiguration {
	p, ok := m.props[field]
	if !ok {
		p = &PropertyConfiguration{field: field}
		m.props[field] = p
	}
	return p
}

// EntityMapping is implemented by every type that embeds an EntityType.
type EntityMapping interface {
	entityMapping() *mappingConfig
}

// ComplexTypeMapping is implemented by every type that embeds a ComplexType.
type ComplexTypeMapping interface {
	complexTypeMapping() *mappingConfig
}

// Configurer is implemented by mappings that configure themselves.
// Discovery calls Configure on a freshly allocated mapping.
type Configurer interface {
	Configure() error
}

// EntityType configures how T is stored in its own table.
// Embed it in a struct to declare a mapping:
//
//	type BlogMapping struct {
//	    modelinit.EntityType[Blog]
//	}
//
//	func (m *BlogMapping) Configure() error {
//	    m.ToTable("blogs")
//	    m.Property("Title").IsRequired().HasMaxLength(200)
//	    return nil
//	}
type EntityType[T any] struct {
	cfg *mappingConfig
}

func (e *EntityType[T]) config() *mappingConfig {
	if e == nil {
		return nil
	}
	if e.cfg == nil {
		e.cfg = newMappingConfig(entityKind, reflect.TypeFor[T]())
	}
	return e.cfg
}

func (e *EntityType[T]) entityMapping() *mappingConfig {
	return e.config()
}

// ToTable sets the table name.
func (e *EntityType[T]) ToTable(name string) *EntityType[T] {
	e.config().table = name
	return e
}

// HasKey sets the fields that form the primary key.
func (e *EntityType[T]) HasKey(fields ...string) *EntityType[T] {
	e.config().keys = append([]string(nil), fields...)
	return e
}

// Property returns the configuration of a field.
// Fields of complex properties are addressed as "Field.Sub".
func (e *EntityType[T]) Property(field string) *PropertyConfiguration {
	return e.config().property(field)
}

// Ignore excludes a field from the model.
func (e *EntityType[T]) Ignore(field string) *EntityType[T] {
	e.config().ignored[field] = true
	return e
}

// HasIndex adds an index over the fields.
func (e *EntityType[T]) HasIndex(fields ...string) *IndexConfiguration {
	ix := &IndexConfiguration{fields: append([]string(nil), fields...)}
	cfg := e.config()
	cfg.indexes = append(cfg.indexes, ix)
	return ix
}

// ComplexType configures a value type whose fields are stored in the
// table of every entity that holds it.
type ComplexType[T any] struct {
	cfg *mappingConfig
}

func (c *ComplexType[T]) config() *mappingConfig {
	if c == nil {
		return nil
	}
	if c.cfg == nil {
		c.cfg = newMappingConfig(complexKind, reflect.TypeFor[T]())
	}
	return c.cfg
}

func (c *ComplexType[T]) complexTypeMapping() *mappingConfig {
	return c.config()
}

// Property returns the configuration of a field.
func (c *ComplexType[T]) Property(field string) *PropertyConfiguration {
	return c.config().property(field)
}

// Ignore excludes a field from the model.
func (c *ComplexType[T]) Ignore(field string) *ComplexType[T] {
	c.config().ignored[field] = true
	return c
}

// PropertyConfiguration holds the overrides for one field.
type PropertyConfiguration struct {
	field      string
	required   *bool
	maxLength  int
	column     string
	columnType string
}

// IsRequired marks the field as not nullable and required by validation.
func (p *PropertyConfiguration) IsRequired() *PropertyConfiguration {
	v := true
	p.required = &v
	return p
}

// IsOptional marks the field as nullable.
func (p *PropertyConfiguration) IsOptional() *PropertyConfiguration {
	v := false
	p.required = &v
	return p
}

// HasMaxLength limits the length of a string or byte slice field.
func (p *PropertyConfiguration) HasMaxLength(n int) *PropertyConfiguration {
	p.maxLength = n
	return p
}

// HasColumnName overrides the column name.
func (p *PropertyConfiguration) HasColumnName(name string) *PropertyConfiguration {
	p.column = name
	return p
}

// HasColumnType overrides the database column type.
func (p *PropertyConfiguration) HasColumnType(sqlType string) *PropertyConfiguration {
	p.columnType = sqlType
	return p
}

// IndexConfiguration holds the settings of one index.
type IndexConfiguration struct {
	fields []string
	name   string
	unique bool
}

// IsUnique makes the index unique.
func (ix *IndexConfiguration) IsUnique() *IndexConfiguration {
	ix.unique = true
	return ix
}

// HasName sets the index name.
func (ix *IndexConfiguration) HasName(name string) *IndexConfiguration {
	ix.name = name
	return ix
}
