// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// memoryName returns a unique shared-cache in-memory database name, so
// connections of one factory see the same database and factories don't
// see each other's.
func memoryName() string {
	return "modelinit-" + uuid.NewString() + "?mode=memory&cache=shared"
}

// validatePersistentPath accepts an absolute path to a .db file, which
// need not exist yet, inside an existing directory.
func validatePersistentPath(path string) error {
	switch {
	case !filepath.IsAbs(path):
		return fmt.Errorf("%q is relative: %w", path, ErrInvalidDatabasePath)
	case filepath.Ext(path) != ".db":
		return fmt.Errorf("%q needs a .db extension: %w", path, ErrInvalidDatabasePath)
	case statMode(path).IsDir():
		return fmt.Errorf("%q is a directory: %w", path, ErrInvalidDatabasePath)
	case !statMode(filepath.Dir(path)).IsDir():
		return fmt.Errorf("%q: no such directory: %w", filepath.Dir(path), ErrInvalidDatabasePath)
	}
	return nil
}

// deleteDatabaseFiles removes a database file and its WAL sidecar files.
// Returns false if the file did not exist.
func deleteDatabaseFiles(path string) (bool, error) {
	if !fileExists(path) {
		return false, nil
	}

	// WAL mode creates sidecar files
	var firstErr error
	for _, suffix := range []string{"", "-shm", "-wal"} {
		name := path + suffix
		if !fileExists(name) {
			continue
		}
		if !isRegularFile(name) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: not a regular file", name)
			}
			continue
		}
		if err := os.Remove(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return false, fmt.Errorf("delete %s: %w", path, firstErr)
	}
	if fileExists(path) {
		return false, fmt.Errorf("%s: still exists after delete", path)
	}
	return true, nil
}

// statMode returns the type bits of path, or fs.ModeIrregular if it
// cannot be stat'ed.
func statMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fs.ModeIrregular
	}
	return info.Mode().Type()
}

func fileExists(path string) bool {
	m := statMode(path)
	return m.IsRegular() || m.IsDir()
}

func isRegularFile(path string) bool {
	return statMode(path).IsRegular()
}
