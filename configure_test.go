// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit_test

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/mdhender/modelinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithContext_EmptyConnectionString tests that an empty connection
// string is rejected for every entry point.
func TestWithContext_EmptyConnectionString(t *testing.T) {
	entries := map[string]func() (*modelinit.Configuration, error){
		"generic": func() (*modelinit.Configuration, error) {
			return modelinit.WithContext[*BloggingContext]("")
		},
		"default": func() (*modelinit.Configuration, error) {
			return modelinit.WithDefaultContext("")
		},
		"type": func() (*modelinit.Configuration, error) {
			return modelinit.WithContextType(reflect.TypeFor[BloggingContext](), "")
		},
		"config": func() (*modelinit.Configuration, error) {
			return modelinit.WithConfig[*BloggingContext](modelinit.Config{})
		},
		// the connection string is checked before the context type
		"bad type": func() (*modelinit.Configuration, error) {
			return modelinit.WithContextType(reflect.TypeFor[int](), "")
		},
	}
	for name, entry := range entries {
		t.Run(name, func(t *testing.T) {
			cfg, err := entry()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, modelinit.IsArgumentError(err))
			assert.ErrorIs(t, err, modelinit.ErrEmptyConnectionString)

			var argErr *modelinit.ArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.Equal(t, "connectionString", argErr.Param)
		})
	}
}

// TestWithContextType_Invalid tests that types not embedding DbContext are rejected.
func TestWithContextType_Invalid(t *testing.T) {
	types := map[string]reflect.Type{
		"nil":         nil,
		"int":         reflect.TypeFor[int](),
		"plain":       reflect.TypeFor[NotAContext](),
		"plain ptr":   reflect.TypeFor[*NotAContext](),
		"interface":   reflect.TypeFor[modelinit.DataContext](),
		"mapping":     reflect.TypeFor[BlogMapping](),
		"ptr to ptr":  reflect.TypeFor[**BloggingContext](),
		"string kind": reflect.TypeFor[string](),
	}
	for name, typ := range types {
		t.Run(name, func(t *testing.T) {
			_, err := modelinit.WithContextType(typ, "sqlite::memory:")
			require.Error(t, err)
			assert.True(t, modelinit.IsArgumentError(err))
			assert.ErrorIs(t, err, modelinit.ErrInvalidContextType)
		})
	}
}

// TestWithContextType_Valid tests the accepted context type forms.
func TestWithContextType_Valid(t *testing.T) {
	types := []reflect.Type{
		reflect.TypeFor[BloggingContext](),
		reflect.TypeFor[*BloggingContext](),
		reflect.TypeFor[modelinit.DbContext](),
		reflect.TypeFor[*PointerContext](),
	}
	for _, typ := range types {
		cfg, err := modelinit.WithContextType(typ, "sqlite::memory:")
		require.NoError(t, err, typ.String())
		require.NotNil(t, cfg)
	}
}

// TestConfiguration_Chaining tests that the builder methods return the builder.
func TestConfiguration_Chaining(t *testing.T) {
	cfg, err := modelinit.WithContext[*BloggingContext]("sqlite::memory:")
	require.NoError(t, err)

	same := cfg.
		AddMappingsFrom(blogCatalog()).
		AddMappingsFromPackageOf(Blog{}).
		AddMappingsFromPackage("example.com/none").
		AutoDetectChangesEnabled(true).
		LazyLoadingEnabled(true).
		ProxyCreationEnabled(true).
		ValidateOnSaveEnabled(true).
		AllowMemoryInProduction(false).
		Logger(quietLogger())
	assert.Same(t, cfg, same)
}

// TestConfiguration_Logger tests that the build logs to the configured logger.
func TestConfiguration_Logger(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := modelinit.WithContext[*BloggingContext]("sqlite::memory:")
	require.NoError(t, err)
	f, err := cfg.Logger(slog.New(slog.NewTextHandler(&buf, nil))).AddMappingsFrom(blogCatalog()).Build()
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, buf.String(), "built data context factory")
	assert.Contains(t, buf.String(), "dialect=sqlite")
}

// TestConfiguration_BuildOnce tests that a configuration produces one factory.
func TestConfiguration_BuildOnce(t *testing.T) {
	cfg, err := modelinit.WithConfig[*BloggingContext](modelinit.Config{
		ConnectionString: "sqlite::memory:",
		Logger:           quietLogger(),
	})
	require.NoError(t, err)
	cfg.AddMappingsFrom(blogCatalog())

	f, err := cfg.Build()
	require.NoError(t, err)
	defer f.Close()

	_, err = cfg.Build()
	assert.ErrorIs(t, err, modelinit.ErrConfigurationConsumed)
}

// TestConfiguration_FlagsCopiedToFactory tests that builder flags seed the factory.
func TestConfiguration_FlagsCopiedToFactory(t *testing.T) {
	cfg, err := modelinit.WithConfig[*BloggingContext](modelinit.Config{
		ConnectionString: "sqlite::memory:",
		Logger:           quietLogger(),
	})
	require.NoError(t, err)

	f, err := cfg.AddMappingsFrom(blogCatalog()).
		AutoDetectChangesEnabled(true).
		ValidateOnSaveEnabled(true).
		Build()
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, f.AutoDetectChangesEnabled)
	assert.False(t, f.LazyLoadingEnabled)
	assert.False(t, f.ProxyCreationEnabled)
	assert.True(t, f.ValidateOnSaveEnabled)
	assert.Equal(t, "sqlite::memory:", f.ConnectionString())
	assert.Equal(t, reflect.TypeFor[BloggingContext](), f.ContextType())
}

// TestConfiguration_SameCatalogTwice tests that catalogs form a set.
func TestConfiguration_SameCatalogTwice(t *testing.T) {
	catalog := blogCatalog()
	cfg, err := modelinit.WithConfig[*BloggingContext](modelinit.Config{
		ConnectionString: "sqlite::memory:",
		Logger:           quietLogger(),
	})
	require.NoError(t, err)

	f, err := cfg.AddMappingsFrom(catalog).AddMappingsFrom(catalog).Build()
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.Model().Entities(), 2)
}
