package logger

import (
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
    Service      string
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool

    // Axiom
    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration

    // Out replaces stdout, mainly for tests.
    Out io.Writer
}

var sink *axiomSink

// Init installs the global logger. Every event goes to stdout and, when
// configured, to a rotated file and to Axiom.
func Init(opts Options) error {
    if opts.Service == "" { opts.Service = "pdfsigner" }

    var writers []io.Writer
    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return fmt.Errorf("create logs dir: %w", err)
        }
        writers = append(writers, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    out := opts.Out
    if out == nil { out = os.Stdout }
    if opts.Pretty {
        out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
    }
    writers = append(writers, out)

    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        s, err := dialAxiom(opts)
        if err != nil {
            fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
        } else {
            sink = s
            writers = append(writers, s)
        }
    }

    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil || opts.Level == "" {
        lvl = zerolog.InfoLevel
    }
    zerolog.TimeFieldFormat = time.RFC3339
    log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
        Level(lvl).
        With().Timestamp().Str("service", opts.Service).
        Logger()
    return nil
}

// Close flushes events still queued for Axiom.
func Close() {
    if sink != nil {
        sink.Close()
        sink = nil
    }
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
    return log.Logger.With().Str("component", name).Logger()
}
