package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/jonboulle/clockwork"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfsigner/internal/config"
    "github.com/local/pdfsigner/internal/docstore"
    "github.com/local/pdfsigner/internal/export"
    "github.com/local/pdfsigner/internal/flatten"
    "github.com/local/pdfsigner/internal/httpapi"
    logpkg "github.com/local/pdfsigner/internal/logger"
    "github.com/local/pdfsigner/internal/metrics"
    "github.com/local/pdfsigner/internal/render"
    "github.com/local/pdfsigner/internal/session"
    "github.com/local/pdfsigner/internal/signature"
    "github.com/local/pdfsigner/internal/statuscheck"
    "github.com/local/pdfsigner/internal/viewport"
)

func main() {
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()
    ctx := context.Background()

    // Document slot
    var slot docstore.Slot
    var redisSlot *docstore.RedisSlot
    switch cfg.Store.Backend {
    case "memory":
        slot = docstore.NewMemorySlot()
    case "redis":
        rs, err := docstore.NewRedisSlot(ctx, cfg.Store.RedisURL, cfg.Store.Key)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to connect to redis")
        }
        defer rs.Close()
        slot, redisSlot = rs, rs
    default:
        slot = docstore.NewFileSlot(cfg.Store.File)
    }
    store := docstore.New(slot, docstore.WithPassword(cfg.Store.Password))

    // Export artifacts
    var blobs export.Store
    var s3Store *export.S3Store
    if cfg.Export.Backend == "s3" {
        st, err := export.NewS3Store(ctx, export.S3Options{
            Bucket:     cfg.Export.Bucket,
            Prefix:     cfg.Export.Prefix,
            Region:     cfg.Export.Region,
            Endpoint:   cfg.Export.Endpoint,
            AccessKey:  cfg.Export.AccessKey,
            SecretKey:  cfg.Export.SecretKey,
            PresignTTL: cfg.Export.PresignTTL,
        })
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init S3 export store")
        }
        blobs, s3Store = st, st
    } else {
        blobs = export.NewMemoryStore()
    }

    fonts, err := signature.NewFontBank(cfg.Signature.FontDir, cfg.Signature.FontSize)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to load signature fonts")
    }

    editor := flatten.NewPDFCPUEditor()
    mgr := session.New(session.Config{
        Viewport: viewport.Config{
            Threshold:  cfg.Viewport.Threshold,
            PageGap:    cfg.Viewport.PageGap,
            ThumbGap:   cfg.Viewport.ThumbGap,
            MainHeight: cfg.Viewport.MainHeight,
            RailHeight: cfg.Viewport.RailHeight,
            EdgeMargin: cfg.Viewport.EdgeMargin,
            EdgeStep:   cfg.Viewport.EdgeStep,
        },
        Signature: signature.Config{
            CharLimit:    cfg.Signature.CharLimit,
            Debounce:     cfg.Signature.Debounce,
            InvalidFlash: cfg.Signature.InvalidFlash,
            PadWidth:     cfg.Signature.PadWidth,
            PadHeight:    cfg.Signature.PadHeight,
        },
    }, session.Deps{
        Store:     store,
        Renderer:  render.NewRenderer(render.NewFitzRasterizer(), cfg.Render.MainScale, cfg.Render.ThumbScale),
        Flattener: flatten.NewPipeline(editor),
        Exporter:  export.NewExporter(blobs),
        Fonts:     fonts,
        Clock:     clockwork.NewRealClock(),
        Probe:     editor,
    })
    defer mgr.Close()

    if cfg.RestoreOnStart {
        if s, err := mgr.Restore(ctx); err != nil {
            log.Info().Err(err).Msg("nothing restored on start")
        } else {
            log.Info().Int("pages", s.PageCount).Msg("restored stored document")
        }
    }

    // Health checks; unset backends report as disabled
    opts := statuscheck.Options{Store: store, StoreBackend: cfg.Store.Backend}
    if redisSlot != nil { opts.Redis = redisSlot }
    if s3Store != nil { opts.Bucket = s3Store }
    checker := statuscheck.New(opts)

    api := httpapi.New(mgr, checker)
    srv := &http.Server{Addr: ":"+cfg.Port, Handler: api.Router()}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    fmt.Println("shutdown complete")
}
