package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// RenderConfig holds the two fixed render scales.
type RenderConfig struct {
    MainScale  float64
    ThumbScale float64
}

// ViewportConfig holds viewport geometry defaults.
type ViewportConfig struct {
    Threshold  float64
    PageGap    float64
    ThumbGap   float64
    MainHeight float64
    RailHeight float64
    EdgeMargin float64
    EdgeStep   float64
}

// SignatureConfig holds signature acquisition limits.
type SignatureConfig struct {
    CharLimit    int
    Debounce     time.Duration
    InvalidFlash time.Duration
    FontSize     float64
    FontDir      string
    PadWidth     int
    PadHeight    int
}

// StoreConfig selects the document slot backend.
type StoreConfig struct {
    Backend  string // "memory"|"file"|"redis"
    Key      string
    File     string
    RedisURL string
    Password string
}

// ExportConfig selects where export artifacts live.
type ExportConfig struct {
    Backend    string // "memory"|"s3"
    Bucket     string
    Prefix     string
    PresignTTL time.Duration
    Endpoint   string
    Region     string
    AccessKey  string
    SecretKey  string
}

// Config is the top-level configuration.
type Config struct {
    Port           string
    RestoreOnStart bool
    Logging        LoggingConfig
    Axiom          AxiomConfig
    Render         RenderConfig
    Viewport       ViewportConfig
    Signature      SignatureConfig
    Store          StoreConfig
    Export         ExportConfig
}

// FromEnv loads configuration from .env, the environment and an optional
// CONFIG_FILE overlay, with sensible defaults.
func FromEnv() Config {
    // .env is optional; real environment variables win.
    _ = godotenv.Load()

    cfg := Config{
        Port:           getEnv("PORT", "8080"),
        RestoreOnStart: parseBool(getEnv("RESTORE_ON_START", "true")),
    }

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfsigner.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfsigner",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Render = RenderConfig{
        MainScale:  parseFloat(getEnv("RENDER_MAIN_SCALE", "1.5"), 1.5),
        ThumbScale: parseFloat(getEnv("RENDER_THUMB_SCALE", "0.3"), 0.3),
    }

    cfg.Viewport = ViewportConfig{
        Threshold:  parseFloat(getEnv("VIEW_THRESHOLD", "0.25"), 0.25),
        PageGap:    parseFloat(getEnv("VIEW_PAGE_GAP", "10"), 10),
        ThumbGap:   parseFloat(getEnv("VIEW_THUMB_GAP", "10"), 10),
        MainHeight: parseFloat(getEnv("VIEW_MAIN_HEIGHT", "900"), 900),
        RailHeight: parseFloat(getEnv("VIEW_RAIL_HEIGHT", "900"), 900),
        EdgeMargin: parseFloat(getEnv("VIEW_EDGE_MARGIN", "20"), 20),
        EdgeStep:   parseFloat(getEnv("VIEW_EDGE_STEP", "20"), 20),
    }

    cfg.Signature = SignatureConfig{
        CharLimit:    parseInt(getEnv("SIGN_CHAR_LIMIT", "25"), 25),
        Debounce:     parseDuration(getEnv("SIGN_DEBOUNCE", "50ms"), 50*time.Millisecond),
        InvalidFlash: parseDuration(getEnv("SIGN_INVALID_FLASH", "300ms"), 300*time.Millisecond),
        FontSize:     parseFloat(getEnv("SIGN_FONT_SIZE", "48"), 48),
        FontDir:      getEnv("SIGN_FONT_DIR", ""),
        PadWidth:     parseInt(getEnv("SIGN_PAD_WIDTH", "500"), 500),
        PadHeight:    parseInt(getEnv("SIGN_PAD_HEIGHT", "200"), 200),
    }

    cfg.Store = StoreConfig{
        Backend:  strings.ToLower(getEnv("STORE_BACKEND", "file")),
        Key:      getEnv("STORE_KEY", "storedPDF"),
        File:     getEnv("STORE_FILE", "data/storedPDF"),
        RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
        Password: getEnv("STORE_PASSWORD", ""),
    }

    cfg.Export = ExportConfig{
        Backend:    strings.ToLower(getEnv("EXPORT_BACKEND", "memory")),
        Bucket:     getEnv("AWS_S3_BUCKET", ""),
        Prefix:     getEnv("EXPORT_PREFIX", "signed"),
        PresignTTL: parseDuration(getEnv("EXPORT_PRESIGN_TTL", "15m"), 15*time.Minute),
        Endpoint:   getEnv("S3_ENDPOINT", ""),
        Region:     getEnv("AWS_REGION", ""),
        AccessKey:  getEnv("AWS_ACCESS_KEY_ID", ""),
        SecretKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
    }

    if path := getEnv("CONFIG_FILE", ""); path != "" {
        if err := ApplyFile(&cfg, path); err != nil {
            // config file problems must not prevent startup with env defaults
            os.Stderr.WriteString("config file ignored: " + err.Error() + "\n")
        }
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
