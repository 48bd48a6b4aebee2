package statuscheck

import (
    "context"
    "errors"
    "time"
)

// Pinger models the minimal Redis capability we need for status checks.
type Pinger interface {
    Ping(ctx context.Context) error
}

// BucketChecker reports whether the export bucket is reachable.
type BucketChecker interface {
    HeadBucket(ctx context.Context) error
}

// DocumentProbe reports whether the document slot holds bytes.
type DocumentProbe interface {
    Has(ctx context.Context) (bool, error)
}

// Checker aggregates health checks for external dependencies.
type Checker struct {
    redis   Pinger
    bucket  BucketChecker
    store   DocumentProbe
    backend string
}

// Options configures the Checker. Nil dependencies are reported as disabled.
type Options struct {
    Redis        Pinger
    Bucket       BucketChecker
    Store        DocumentProbe
    StoreBackend string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    OK    bool   `json:"ok"`
    Store Status `json:"store"`
    Redis Status `json:"redis"`
    S3    Status `json:"s3"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:   opts.Redis,
        bucket:  opts.Bucket,
        store:   opts.Store,
        backend: opts.StoreBackend,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    s := Summary{
        Store: c.checkStore(ctx),
        Redis: c.checkRedis(ctx),
        S3:    c.checkS3(ctx),
    }
    s.OK = s.Store.OK && s.Redis.OK && s.S3.OK
    return s
}

func (c *Checker) checkStore(ctx context.Context) Status {
    if c.store == nil {
        return Status{OK: false, Message: "store unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    has, err := c.store.Has(ctx)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    msg := c.backend + ": empty"
    if has {
        msg = c.backend + ": document stored"
    }
    return Status{OK: true, Message: msg}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: true, Message: "Disabled"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.bucket == nil {
        return Status{OK: true, Message: "Disabled"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.bucket.HeadBucket(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
