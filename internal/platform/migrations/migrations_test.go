package migrations

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

var namePattern = regexp.MustCompile(`^\d{4}_[a-z_]+\.(up|down)\.sql$`)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	if err != nil {
		t.Fatalf("read embedded sql: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if !namePattern.MatchString(name) {
			t.Fatalf("migration %q does not match the naming convention", name)
		}
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".up.sql"), ".down.sql")
		if strings.HasSuffix(name, ".up.sql") {
			ups[base] = true
		} else {
			downs[base] = true
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down file", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up file", base)
		}
	}
}

func TestEmbeddedMigrationsNotEmpty(t *testing.T) {
	err := fs.WalkDir(files, "sql", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(files, path)
		if err != nil {
			return err
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			t.Errorf("migration %s is empty", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk embedded sql: %v", err)
	}
}
