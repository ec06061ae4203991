package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"adsbcore/lib/crc"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MinMessages != 2 {
		t.Errorf("expected default min_messages 2, got %d", cfg.MinMessages)
	}
	if cfg.TTLSeconds != 60 {
		t.Errorf("expected default ttl_seconds 60, got %d", cfg.TTLSeconds)
	}
	if mode, err := cfg.CRCMode(); err != nil || mode != crc.ModeOneBit {
		t.Errorf("expected default correction one_bit, got %v (err %v)", mode, err)
	}
}

func TestLoadYAML_OverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("min_messages: 5\nttl_seconds: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %s", err)
	}
	if cfg.MinMessages != 5 {
		t.Errorf("expected min_messages 5, got %d", cfg.MinMessages)
	}
	if cfg.TTLSeconds != 120 {
		t.Errorf("expected ttl_seconds 120, got %d", cfg.TTLSeconds)
	}
	if cfg.Correction != "one_bit" {
		t.Errorf("expected unset field to keep default one_bit, got %q", cfg.Correction)
	}
}

func TestLoad_FlagOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("min_messages: 5\nttl_seconds: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--min-messages=9"}); err != nil {
		t.Fatalf("Parse: %s", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.MinMessages != 9 {
		t.Errorf("expected flag override to win over the YAML file, got %d", cfg.MinMessages)
	}
	if cfg.TTLSeconds != 120 {
		t.Errorf("expected unset flag to leave the YAML value, got %d", cfg.TTLSeconds)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %s", err)
	}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.MinMessages != 2 {
		t.Errorf("expected default min_messages 2, got %d", cfg.MinMessages)
	}
	if cfg.Correction != "one_bit" {
		t.Errorf("expected default correction one_bit, got %q", cfg.Correction)
	}
}

func TestCRCMode_UnknownRejected(t *testing.T) {
	cfg := Default()
	cfg.Correction = "bogus"
	if _, err := cfg.CRCMode(); err == nil {
		t.Error("expected an error for an unknown correction mode")
	}
}
