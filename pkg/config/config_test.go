package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

var errInvalid = errors.New("invalid")

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errInvalid
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("JIMMY_TEST_NAME", "from-env")
	p := writeFile(t, "name: ${JIMMY_TEST_NAME}\nport: 9000\n")

	cfg := sample{Extra: "default"}
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-env" || cfg.Port != 9000 || cfg.Extra != "default" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadValidates(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	var cfg sample
	if err := Load(p, &cfg); !errors.Is(err, errInvalid) {
		t.Errorf("err = %v, want errInvalid", err)
	}
}

func TestLoadIfExists(t *testing.T) {
	cfg := sample{Port: 1}
	loaded, err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil || loaded {
		t.Fatalf("missing file: loaded = %v, err = %v", loaded, err)
	}
	if loaded, err := LoadIfExists("", &cfg); err != nil || loaded {
		t.Fatalf("empty name: loaded = %v, err = %v", loaded, err)
	}

	p := writeFile(t, "port: 2\n")
	loaded, err = LoadIfExists(p, &cfg)
	if err != nil || !loaded || cfg.Port != 2 {
		t.Errorf("loaded = %v, err = %v, cfg = %+v", loaded, err, cfg)
	}
}
