// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mdhender/modelinit"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func init() {
	// dialects must be registered before the connection factory is initialized
	if err := modelinit.RegisterDialect("mock", "sqlmock", modelinit.SQLite); err != nil {
		panic(err)
	}
	if err := modelinit.RegisterDialect("ghost", "no-such-driver", modelinit.Postgres); err != nil {
		panic(err)
	}
}

// quietLogger discards log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Domain types.

type Address struct {
	Street string
	City   string
}

type Blog struct {
	ID        int64
	Title     string
	Rating    *int
	Address   Address
	CreatedAt time.Time
	Posts     []Post
}

type Post struct {
	PostID int64
	BlogID int64
	Body   string
	Token  uuid.UUID
}

type Tag struct {
	Name string
}

type Comment struct {
	ID     int64
	Author string
}

// Mappings.

type BlogMapping struct {
	modelinit.EntityType[Blog]
}

func (m *BlogMapping) Configure() error {
	m.Property("Title").IsRequired().HasMaxLength(20)
	m.HasIndex("Title").IsUnique()
	return nil
}

type AddressMapping struct {
	modelinit.ComplexType[Address]
}

func (m *AddressMapping) Configure() error {
	m.Property("City").IsRequired()
	return nil
}

// EntityMappingBase is an intermediate generic base; mappings that embed it
// are entity mappings through it.
type EntityMappingBase[T any] struct {
	modelinit.EntityType[T]
}

type PostMapping struct {
	EntityMappingBase[Post]
}

// Contexts.

type BloggingContext struct {
	modelinit.DbContext
	Blogs *modelinit.Set[Blog]
	Posts *modelinit.Set[Post]

	initialized bool
}

func (c *BloggingContext) Init() error {
	c.initialized = true
	return nil
}

type TagContext struct {
	modelinit.DbContext
	Tags *modelinit.Set[Tag]
}

type CommentContext struct {
	modelinit.DbContext
	Comments *modelinit.Set[Comment]
}

type PointerContext struct {
	*modelinit.DbContext
}

var errInitFailed = errors.New("init failed")

type FailingContext struct {
	modelinit.DbContext
}

func (c *FailingContext) Init() error {
	return errInitFailed
}

type NotAContext struct {
	Name string
}

// blogCatalog returns a catalog holding the blog mappings and some
// unrelated types.
func blogCatalog() *modelinit.Catalog {
	return modelinit.NewCatalog("blog").Add(
		BlogMapping{},
		AddressMapping{},
		PostMapping{},
		Blog{},
		NotAContext{},
	)
}

// buildBlogFactory builds a factory for BloggingContext over the blog catalog.
func buildBlogFactory(t *testing.T, connString string) *modelinit.Factory {
	t.Helper()
	cfg, err := modelinit.WithConfig[*BloggingContext](modelinit.Config{
		ConnectionString: connString,
		Logger:           quietLogger(),
	})
	require.NoError(t, err)
	f, err := cfg.AddMappingsFrom(blogCatalog()).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
