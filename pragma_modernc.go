// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build !mattn

package modelinit

import (
	"fmt"
	"strings"
)

// sqliteDriverName is the database/sql name modernc.org/sqlite registers.
const sqliteDriverName = "sqlite"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are tuned for shared-cache in-memory databases.
var memoryPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "MEMORY"},
	{name: "synchronous", value: "OFF"},
	{name: "temp_store", value: "MEMORY"},
}

// persistentPragmas are tuned for durable database files.
var persistentPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "WAL"},
	{name: "synchronous", value: "NORMAL"},
	{name: "temp_store", value: "FILE"},
}

// buildDSN constructs a DSN for modernc.org/sqlite.
// modernc uses the syntax: file:path?_pragma=name(value)&_pragma=name2(value2)
// A name from memoryName already carries a query string.
func buildDSN(name string, pragmas []pragma) string {
	var sb strings.Builder

	sb.WriteString("file:")
	sb.WriteString(name)

	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		sb.WriteString(sep)
		sep = "&"
		fmt.Fprintf(&sb, "_pragma=%s(%s)", p.name, p.value)
	}

	return sb.String()
}
