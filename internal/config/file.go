package config

import (
    "fmt"
    "os"
    "time"

    "gopkg.in/yaml.v3"
)

// fileConfig is the YAML overlay. Zero values leave the env-derived setting alone.
type fileConfig struct {
    Port   string `yaml:"port"`
    Render struct {
        MainScale  float64 `yaml:"main-scale"`
        ThumbScale float64 `yaml:"thumb-scale"`
    } `yaml:"render"`
    Viewport struct {
        Threshold  float64 `yaml:"threshold"`
        PageGap    float64 `yaml:"page-gap"`
        ThumbGap   float64 `yaml:"thumb-gap"`
        MainHeight float64 `yaml:"main-height"`
        RailHeight float64 `yaml:"rail-height"`
    } `yaml:"viewport"`
    Signature struct {
        CharLimit int     `yaml:"char-limit"`
        Debounce  string  `yaml:"debounce"`
        FontSize  float64 `yaml:"font-size"`
        FontDir   string  `yaml:"font-dir"`
    } `yaml:"signature"`
    Store struct {
        Backend  string `yaml:"backend"`
        Key      string `yaml:"key"`
        File     string `yaml:"file"`
        RedisURL string `yaml:"redis-url"`
    } `yaml:"store"`
    Export struct {
        Backend    string `yaml:"backend"`
        Bucket     string `yaml:"bucket"`
        Prefix     string `yaml:"prefix"`
        PresignTTL string `yaml:"presign-ttl"`
        Endpoint   string `yaml:"endpoint"`
        Region     string `yaml:"region"`
    } `yaml:"export"`
}

// ApplyFile overlays the YAML file at path onto cfg.
func ApplyFile(cfg *Config, path string) error {
    data, err := os.ReadFile(path)
    if err != nil {
        return fmt.Errorf("read config file: %w", err)
    }
    return Apply(cfg, data)
}

// Apply overlays YAML data onto cfg.
func Apply(cfg *Config, data []byte) error {
    var fc fileConfig
    if err := yaml.Unmarshal(data, &fc); err != nil {
        return fmt.Errorf("parse config file: %w", err)
    }

    setString(&cfg.Port, fc.Port)

    setFloat(&cfg.Render.MainScale, fc.Render.MainScale)
    setFloat(&cfg.Render.ThumbScale, fc.Render.ThumbScale)

    setFloat(&cfg.Viewport.Threshold, fc.Viewport.Threshold)
    setFloat(&cfg.Viewport.PageGap, fc.Viewport.PageGap)
    setFloat(&cfg.Viewport.ThumbGap, fc.Viewport.ThumbGap)
    setFloat(&cfg.Viewport.MainHeight, fc.Viewport.MainHeight)
    setFloat(&cfg.Viewport.RailHeight, fc.Viewport.RailHeight)

    if fc.Signature.CharLimit > 0 { cfg.Signature.CharLimit = fc.Signature.CharLimit }
    if fc.Signature.Debounce != "" {
        d, err := time.ParseDuration(fc.Signature.Debounce)
        if err != nil {
            return fmt.Errorf("signature.debounce: %w", err)
        }
        cfg.Signature.Debounce = d
    }
    setFloat(&cfg.Signature.FontSize, fc.Signature.FontSize)
    setString(&cfg.Signature.FontDir, fc.Signature.FontDir)

    setString(&cfg.Store.Backend, fc.Store.Backend)
    setString(&cfg.Store.Key, fc.Store.Key)
    setString(&cfg.Store.File, fc.Store.File)
    setString(&cfg.Store.RedisURL, fc.Store.RedisURL)

    setString(&cfg.Export.Backend, fc.Export.Backend)
    setString(&cfg.Export.Bucket, fc.Export.Bucket)
    setString(&cfg.Export.Prefix, fc.Export.Prefix)
    setString(&cfg.Export.Endpoint, fc.Export.Endpoint)
    setString(&cfg.Export.Region, fc.Export.Region)
    if fc.Export.PresignTTL != "" {
        d, err := time.ParseDuration(fc.Export.PresignTTL)
        if err != nil {
            return fmt.Errorf("export.presign-ttl: %w", err)
        }
        cfg.Export.PresignTTL = d
    }
    return nil
}

func setString(dst *string, v string) { if v != "" { *dst = v } }

func setFloat(dst *float64, v float64) { if v != 0 { *dst = v } }
