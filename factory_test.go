// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/mdhender/modelinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFactory_Create tests that every call returns a new, fully bound context.
func TestFactory_Create(t *testing.T) {
	f := buildBlogFactory(t, "sqlite::memory:")

	first, err := f.Create()
	require.NoError(t, err)
	second, err := f.Create()
	require.NoError(t, err)

	a, ok := first.(*BloggingContext)
	require.True(t, ok)
	b, ok := second.(*BloggingContext)
	require.True(t, ok)

	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Same(t, f.Model(), a.Model())
	assert.Same(t, a.Model(), b.Model())

	assert.True(t, a.initialized, "Init must run")
	require.NotNil(t, a.Blogs)
	require.NotNil(t, a.Posts)
	assert.NotSame(t, a.Blogs, b.Blogs)
	assert.Equal(t, "blogs", a.Blogs.TableName())
	assert.Equal(t, "posts", a.Posts.TableName())
	assert.Same(t, &a.DbContext, a.Blogs.Context())
}

// TestFactory_FlagsReadOnCreate tests that changing a factory flag affects only later contexts.
func TestFactory_FlagsReadOnCreate(t *testing.T) {
	f := buildBlogFactory(t, "sqlite::memory:")

	before, err := modelinit.Create[*BloggingContext](f)
	require.NoError(t, err)
	assert.Equal(t, modelinit.ContextConfiguration{}, *before.Configuration())

	f.LazyLoadingEnabled = true
	f.ValidateOnSaveEnabled = true

	after, err := modelinit.Create[*BloggingContext](f)
	require.NoError(t, err)
	assert.True(t, after.Configuration().LazyLoadingEnabled)
	assert.True(t, after.Configuration().ValidateOnSaveEnabled)
	assert.False(t, after.Configuration().AutoDetectChangesEnabled)
	assert.False(t, after.Configuration().ProxyCreationEnabled)

	assert.False(t, before.Configuration().LazyLoadingEnabled)

	// a context's own flags are independent of the factory
	after.Configuration().ProxyCreationEnabled = true
	assert.False(t, f.ProxyCreationEnabled)
}

// TestFactory_PointerEmbedding tests a context that embeds *DbContext.
func TestFactory_PointerEmbedding(t *testing.T) {
	cfg, err := modelinit.WithContext[*PointerContext]("sqlite::memory:")
	require.NoError(t, err)
	f, err := cfg.Logger(quietLogger()).AddMappingsFrom(blogCatalog()).Build()
	require.NoError(t, err)
	defer f.Close()

	c, err := modelinit.Create[*PointerContext](f)
	require.NoError(t, err)
	require.NotNil(t, c.DbContext)
	assert.Same(t, f.Model(), c.Model())
}

// TestFactory_DefaultContext tests factories for plain DbContext values.
func TestFactory_DefaultContext(t *testing.T) {
	cfg, err := modelinit.WithDefaultContext("sqlite::memory:")
	require.NoError(t, err)
	f, err := cfg.Logger(quietLogger()).AddMappingsFrom(blogCatalog()).Build()
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, reflect.TypeFor[modelinit.DbContext](), f.ContextType())

	c, err := modelinit.Create[*modelinit.DbContext](f)
	require.NoError(t, err)
	assert.Same(t, f.Model(), c.Model())

	blogs, err := modelinit.SetOf[Blog](c)
	require.NoError(t, err)
	assert.Equal(t, "blogs", blogs.TableName())
	assert.Equal(t, reflect.TypeFor[Blog](), blogs.Entity().Type())

	_, err = modelinit.SetOf[Tag](c)
	assert.ErrorIs(t, err, modelinit.ErrNotMapped)
}

// TestFactory_InitError tests that a failing Init fails Create.
func TestFactory_InitError(t *testing.T) {
	cfg, err := modelinit.WithContext[*FailingContext]("sqlite::memory:")
	require.NoError(t, err)
	f, err := cfg.Logger(quietLogger()).Build()
	require.NoError(t, err)
	defer f.Close()

	c, err := f.Create()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, errInitFailed)
}

// TestFactory_CreateWrongType tests the generic Create with a mismatched type.
func TestFactory_CreateWrongType(t *testing.T) {
	f := buildBlogFactory(t, "sqlite::memory:")

	c, err := modelinit.Create[*TagContext](f)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, modelinit.ErrInvalidContextType)
}

// TestFactory_ContextTypeForms tests that struct and pointer context types build the same factory.
func TestFactory_ContextTypeForms(t *testing.T) {
	for _, typ := range []reflect.Type{reflect.TypeFor[BloggingContext](), reflect.TypeFor[*BloggingContext]()} {
		cfg, err := modelinit.WithContextType(typ, "sqlite::memory:")
		require.NoError(t, err)
		f, err := cfg.Logger(quietLogger()).AddMappingsFrom(blogCatalog()).Build()
		require.NoError(t, err)

		assert.Equal(t, reflect.TypeFor[BloggingContext](), f.ContextType())
		c, err := f.Create()
		require.NoError(t, err)
		assert.IsType(t, &BloggingContext{}, c)
		require.NoError(t, f.Close())
	}
}

// TestFactory_Close tests that contexts of a closed factory cannot reach the database.
func TestFactory_Close(t *testing.T) {
	f := buildBlogFactory(t, "sqlite::memory:")
	ctx := context.Background()

	c, err := modelinit.Create[*BloggingContext](f)
	require.NoError(t, err)
	_, err = c.Conn(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Connection().DB()
	assert.ErrorIs(t, err, modelinit.ErrConnectionClosed)

	_, err = c.Conn(ctx)
	assert.ErrorIs(t, err, modelinit.ErrConnectionClosed)

	// the model is still available for new contexts
	later, err := modelinit.Create[*BloggingContext](f)
	require.NoError(t, err)
	_, err = later.Database().CreateIfNotExists(ctx)
	assert.ErrorIs(t, err, modelinit.ErrConnectionClosed)
}
