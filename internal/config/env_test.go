package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestFromEnvDefaults(t *testing.T) {
    t.Setenv("CONFIG_FILE", "")
    t.Setenv("RENDER_MAIN_SCALE", "")
    t.Setenv("SIGN_CHAR_LIMIT", "")
    cfg := FromEnv()

    if cfg.Render.MainScale != 1.5 || cfg.Render.ThumbScale != 0.3 {
        t.Errorf("render scales = %v/%v", cfg.Render.MainScale, cfg.Render.ThumbScale)
    }
    if cfg.Viewport.Threshold != 0.25 {
        t.Errorf("threshold = %v", cfg.Viewport.Threshold)
    }
    if cfg.Signature.CharLimit != 25 || cfg.Signature.Debounce != 50*time.Millisecond {
        t.Errorf("signature = %+v", cfg.Signature)
    }
    if cfg.Store.Key != "storedPDF" {
        t.Errorf("store key = %q", cfg.Store.Key)
    }
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("CONFIG_FILE", "")
    t.Setenv("RENDER_MAIN_SCALE", "2")
    t.Setenv("SIGN_CHAR_LIMIT", "not-a-number")
    t.Setenv("STORE_BACKEND", "REDIS")
    cfg := FromEnv()

    if cfg.Render.MainScale != 2 {
        t.Errorf("main scale = %v", cfg.Render.MainScale)
    }
    if cfg.Signature.CharLimit != 25 {
        t.Errorf("char limit should fall back to default, got %d", cfg.Signature.CharLimit)
    }
    if cfg.Store.Backend != "redis" {
        t.Errorf("backend = %q", cfg.Store.Backend)
    }
}

func TestApplyFile(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "pdfsigner.yaml")
    data := []byte(`
port: "9090"
render:
  main-scale: 2
viewport:
  rail-height: 640
signature:
  debounce: 120ms
store:
  backend: memory
export:
  presign-ttl: 1h
`)
    if err := os.WriteFile(path, data, 0o644); err != nil {
        t.Fatal(err)
    }

    cfg := Config{Port: "8080"}
    cfg.Render.ThumbScale = 0.3
    if err := ApplyFile(&cfg, path); err != nil {
        t.Fatalf("ApplyFile: %v", err)
    }
    if cfg.Port != "9090" || cfg.Render.MainScale != 2 || cfg.Render.ThumbScale != 0.3 {
        t.Errorf("unexpected overlay result: %+v", cfg)
    }
    if cfg.Viewport.RailHeight != 640 {
        t.Errorf("rail height = %v", cfg.Viewport.RailHeight)
    }
    if cfg.Signature.Debounce != 120*time.Millisecond {
        t.Errorf("debounce = %v", cfg.Signature.Debounce)
    }
    if cfg.Store.Backend != "memory" || cfg.Export.PresignTTL != time.Hour {
        t.Errorf("store/export = %+v %+v", cfg.Store, cfg.Export)
    }
}

func TestApplyRejectsBadDuration(t *testing.T) {
    var cfg Config
    if err := Apply(&cfg, []byte("signature:\n  debounce: soon\n")); err == nil {
        t.Fatal("expected error for bad duration")
    }
}
