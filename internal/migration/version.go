package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

// Manifest describes the embedded migration set.
type Manifest struct {
	Version  uint
	Checksum string
	// Files holds the up migrations in apply order.
	Files []string
}

// SchemaVersion is the version as stored in the bootstrap state row.
func (m Manifest) SchemaVersion() string {
	return strconv.FormatUint(uint64(m.Version), 10)
}

// LoadManifest reads the embedded up migrations once and derives the latest
// version and a checksum over names and contents.
func LoadManifest() (Manifest, error) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("list migrations: %w", err)
	}

	type upFile struct {
		name    string
		version uint
	}
	var files []upFile
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name())
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, ok := parseMigrationVersion(name)
		if !ok {
			return Manifest{}, fmt.Errorf("invalid migration filename: %s", name)
		}
		files = append(files, upFile{name: name, version: version})
	}
	if len(files) == 0 {
		return Manifest{}, errors.New("no embedded migrations found")
	}
	slices.SortFunc(files, func(a, b upFile) int {
		if a.version != b.version {
			if a.version < b.version {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	m := Manifest{Files: make([]string, 0, len(files))}
	hasher := sha256.New()
	for _, f := range files {
		content, err := embeddedMigrations.ReadFile(migrationsDir + "/" + f.name)
		if err != nil {
			return Manifest{}, fmt.Errorf("read migration %s: %w", f.name, err)
		}
		_, _ = hasher.Write([]byte(f.name))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.Write(content)
		_, _ = hasher.Write([]byte{0})

		m.Files = append(m.Files, f.name)
		m.Version = max(m.Version, f.version)
	}
	m.Checksum = hex.EncodeToString(hasher.Sum(nil))
	return m, nil
}

// LatestMigrationVersion returns the highest embedded migration version.
func LatestMigrationVersion() (uint, error) {
	m, err := LoadManifest()
	if err != nil {
		return 0, err
	}
	return m.Version, nil
}

// MigrationsChecksum returns the checksum of the embedded migrations.
func MigrationsChecksum() (string, error) {
	m, err := LoadManifest()
	if err != nil {
		return "", err
	}
	return m.Checksum, nil
}

// parseMigrationVersion reads the numeric prefix of NNNNNN_name.up.sql.
func parseMigrationVersion(name string) (uint, bool) {
	prefix, _, found := strings.Cut(name, "_")
	if !found || prefix == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(parsed), true
}
