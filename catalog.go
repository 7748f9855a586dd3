// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"reflect"
	"sync"
)

// Catalog is a named set of types that mapping discovery scans.
// A catalog may hold any types; discovery picks out the mappings.
type Catalog struct {
	name  string
	types []reflect.Type
	seen  map[reflect.Type]bool
}

// NewCatalog returns an empty catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{name: name, seen: make(map[reflect.Type]bool)}
}

// Name returns the catalog name.
func (c *Catalog) Name() string {
	return c.name
}

// Add adds the types of the given samples. A sample may be a value,
// a pointer to a value, or a reflect.Type.
func (c *Catalog) Add(samples ...any) *Catalog {
	for _, s := range samples {
		c.addType(typeOfSample(s))
	}
	return c
}

// Include adds T to the catalog.
func Include[T any](c *Catalog) *Catalog {
	c.addType(reflect.TypeFor[T]())
	return c
}

// Types returns the catalog's types in insertion order.
func (c *Catalog) Types() []reflect.Type {
	return append([]reflect.Type(nil), c.types...)
}

func (c *Catalog) addType(t reflect.Type) {
	if t == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if c.seen[t] {
		return
	}
	c.seen[t] = true
	c.types = append(c.types, t)
}

func typeOfSample(s any) reflect.Type {
	if t, ok := s.(reflect.Type); ok {
		return t
	}
	return reflect.TypeOf(s)
}

// package catalogs, keyed by import path
var (
	packagesMu sync.Mutex
	packages   = map[string]*Catalog{}
)

// Register adds the samples' types to the catalog of the package that
// declares them. It is meant to be called from init functions.
func Register(samples ...any) {
	packagesMu.Lock()
	defer packagesMu.Unlock()
	for _, s := range samples {
		t := typeOfSample(s)
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		pkg := t.PkgPath()
		c, ok := packages[pkg]
		if !ok {
			c = NewCatalog(pkg)
			packages[pkg] = c
		}
		c.addType(t)
	}
}

// PackageCatalog returns the catalog of types registered for the import path.
// The second result is false if nothing was registered for it.
func PackageCatalog(pkgPath string) (*Catalog, bool) {
	packagesMu.Lock()
	defer packagesMu.Unlock()
	c, ok := packages[pkgPath]
	return c, ok
}
