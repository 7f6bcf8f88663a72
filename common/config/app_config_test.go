package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, id string) string {
	t.Helper()
	content := "serverType: table\nmetricPort: 5100\n"
	if id != "" {
		content = "id: " + id + "\n" + content
	}
	path := filepath.Join(t.TempDir(), "application.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_IDFromFile(t *testing.T) {
	t.Setenv("NODE_ID", "")
	path := writeTestConfig(t, "table-7")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Conf.ID != "table-7" {
		t.Fatalf("id expected from yaml, got %q", Conf.ID)
	}
}

func TestLoad_EnvOverridesID(t *testing.T) {
	t.Setenv("NODE_ID", "table-env")
	path := writeTestConfig(t, "table-7")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Conf.ID != "table-env" {
		t.Fatalf("NODE_ID expected to override yaml id, got %q", Conf.ID)
	}
}

func TestLoad_MissingIDFails(t *testing.T) {
	t.Setenv("NODE_ID", "")
	path := writeTestConfig(t, "")
	if err := Load(path); err == nil {
		t.Fatalf("config without id and NODE_ID expected an error")
	}
}
