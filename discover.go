// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"reflect"
)

var (
	entityMappingType  = reflect.TypeFor[EntityMapping]()
	complexMappingType = reflect.TypeFor[ComplexTypeMapping]()
)

// discoverMappings scans the catalogs for mapping types, instantiates
// each one and registers it. Any construction failure aborts discovery.
func discoverMappings(catalogs []*Catalog, reg *ConfigurationRegistrar, logger *slog.Logger) error {
	for _, c := range catalogs {
		for _, t := range c.Types() {
			if !isCandidate(t) {
				continue
			}
			ptr := reflect.PointerTo(t)
			// entity shape is checked first; a type is never registered as both
			switch {
			case ptr.Implements(entityMappingType):
				v, err := instantiate(t)
				if err != nil {
					return err
				}
				logger.Debug("discovered entity mapping", "catalog", c.Name(), "type", t.String())
				if err := reg.AddEntity(v.(EntityMapping)); err != nil {
					return fmt.Errorf("register %s: %w", t, err)
				}
			case ptr.Implements(complexMappingType):
				v, err := instantiate(t)
				if err != nil {
					return err
				}
				logger.Debug("discovered complex type mapping", "catalog", c.Name(), "type", t.String())
				if err := reg.AddComplexType(v.(ComplexTypeMapping)); err != nil {
					return fmt.Errorf("register %s: %w", t, err)
				}
			}
		}
	}
	return nil
}

// isCandidate reports whether t is an exported, concrete type.
func isCandidate(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Name() != "" && token.IsExported(t.Name())
}

// instantiate allocates a zero value of t and lets it configure itself.
func instantiate(t reflect.Type) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &MappingError{Type: t, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v = reflect.New(t).Interface()
	if c, ok := v.(Configurer); ok {
		if err := c.Configure(); err != nil {
			return nil, &MappingError{Type: t, Err: err}
		}
	}
	return v, nil
}

// ConfigurationRegistrar collects mapping registrations before a model is built.
type ConfigurationRegistrar struct {
	entities     []*mappingConfig
	complexTypes []*mappingConfig
	byType       map[reflect.Type]*mappingConfig
}

func newConfigurationRegistrar() *ConfigurationRegistrar {
	return &ConfigurationRegistrar{byType: make(map[reflect.Type]*mappingConfig)}
}

// AddEntity registers an entity mapping.
func (r *ConfigurationRegistrar) AddEntity(m EntityMapping) error {
	if m == nil {
		return errors.New("nil entity mapping")
	}
	return r.add(m.entityMapping(), reflect.TypeOf(m))
}

// AddComplexType registers a complex type mapping.
func (r *ConfigurationRegistrar) AddComplexType(m ComplexTypeMapping) error {
	if m == nil {
		return errors.New("nil complex type mapping")
	}
	return r.add(m.complexTypeMapping(), reflect.TypeOf(m))
}

func (r *ConfigurationRegistrar) add(cfg *mappingConfig, from reflect.Type) error {
	if cfg == nil {
		return &MappingError{Type: from, Err: errors.New("mapping base is a nil pointer")}
	}
	if prev, ok := r.byType[cfg.modelType]; ok {
		return fmt.Errorf("%s as %s (already a %s): %w", cfg.modelType, cfg.kind, prev.kind, ErrDuplicateMapping)
	}
	r.byType[cfg.modelType] = cfg
	if cfg.kind == entityKind {
		r.entities = append(r.entities, cfg)
	} else {
		r.complexTypes = append(r.complexTypes, cfg)
	}
	return nil
}

// Entities returns the registered entity types in registration order.
func (r *ConfigurationRegistrar) Entities() []reflect.Type {
	return modelTypes(r.entities)
}

// ComplexTypes returns the registered complex types in registration order.
func (r *ConfigurationRegistrar) ComplexTypes() []reflect.Type {
	return modelTypes(r.complexTypes)
}

func (r *ConfigurationRegistrar) has(t reflect.Type) bool {
	_, ok := r.byType[t]
	return ok
}

func modelTypes(cfgs []*mappingConfig) []reflect.Type {
	var list []reflect.Type
	for _, cfg := range cfgs {
		list = append(list, cfg.modelType)
	}
	return list
}
