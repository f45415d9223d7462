package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  local_root: "/data/papers"
translate:
  model: "gpt-4o"
  max_chars: 3000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.LocalRoot != "/data/papers" {
		t.Errorf("local_root = %q", cfg.Storage.LocalRoot)
	}
	if cfg.Translate.Model != "gpt-4o" || cfg.Translate.MaxChars != 3000 {
		t.Errorf("unexpected translate config: %+v", cfg.Translate)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("host default = %q", cfg.Server.Host)
	}
	if cfg.Storage.Namespace != "papers" {
		t.Errorf("namespace default = %q", cfg.Storage.Namespace)
	}
	if cfg.Fetch.DirectURLTemplate == "" || cfg.Fetch.LandingURLTemplate == "" {
		t.Error("fetch URL templates should have defaults")
	}
	if cfg.Translate.MaxChars != 6000 || cfg.Translate.TimeoutSeconds != 90 {
		t.Errorf("translate defaults: %+v", cfg.Translate)
	}
	if cfg.Translate.Style != "blockquote" || cfg.Translate.TargetLang != "zh" {
		t.Errorf("translate rendering defaults: %+v", cfg.Translate)
	}
	if cfg.Stream.ChunkBytes != 4096 || cfg.Stream.KeepaliveSeconds != 15 {
		t.Errorf("stream defaults: %+v", cfg.Stream)
	}
	if cfg.Parse.TimeoutMinutes != 30 {
		t.Errorf("parse timeout default = %d", cfg.Parse.TimeoutMinutes)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  local_root: "./data/papers"
  ledger_path: "./data/db/ledger.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "papers"); cfg.Storage.LocalRoot != want {
		t.Errorf("local_root = %q, want %q", cfg.Storage.LocalRoot, want)
	}
	if want := filepath.Join(dir, "data", "db", "ledger.db"); cfg.Storage.LedgerPath != want {
		t.Errorf("ledger_path = %q, want %q", cfg.Storage.LedgerPath, want)
	}
}

func TestOSSEnabled(t *testing.T) {
	var o OSSConfig
	if o.Enabled() {
		t.Error("empty OSS config should be disabled")
	}
	o = OSSConfig{Endpoint: "oss-cn-hangzhou.aliyuncs.com", Bucket: "papers"}
	if !o.Enabled() {
		t.Error("endpoint+bucket should enable OSS")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
