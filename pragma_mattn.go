// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build mattn

package modelinit

import (
	"fmt"
	"strings"
)

// sqliteDriverName is the database/sql name github.com/mattn/go-sqlite3 registers.
const sqliteDriverName = "sqlite3"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are tuned for shared-cache in-memory databases.
var memoryPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "MEMORY"},
	{name: "_synchronous", value: "OFF"},
}

// persistentPragmas are tuned for durable database files.
var persistentPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "WAL"},
	{name: "_synchronous", value: "NORMAL"},
}

// buildDSN constructs a DSN for github.com/mattn/go-sqlite3.
// mattn uses the syntax: file:path?_foreign_keys=1&_journal_mode=WAL
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
		fmt.Fprintf(&sb, "%s=%s", p.name, p.value)
	}

	return sb.String()
}
