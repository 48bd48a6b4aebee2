package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "sync"
    "sync/atomic"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
)

const (
    axiomQueue    = 1000
    axiomBatchMax = 200
)

// axiomSink is a zerolog.LevelWriter that queues events and ships them to
// Axiom in batches. Events below min are skipped; a full queue drops events.
type axiomSink struct {
    send     func(ctx context.Context, batch []axiom.Event) error
    min      zerolog.Level
    batchMax int

    queue    chan axiom.Event
    dropped  atomic.Uint64
    failures atomic.Uint64

    stop chan struct{}
    done chan struct{}
    once sync.Once
}

func dialAxiom(opts Options) (*axiomSink, error) {
    dataset := opts.AxiomDataset
    if dataset == "" { dataset = "dev_" + opts.Service }
    copts := []axiom.Option{axiom.SetToken(opts.AxiomAPIKey)}
    if opts.AxiomOrgID != "" { copts = append(copts, axiom.SetOrganizationID(opts.AxiomOrgID)) }
    c, err := axiom.NewClient(copts...)
    if err != nil { return nil, err }
    send := func(ctx context.Context, batch []axiom.Event) error {
        _, err := c.IngestEvents(ctx, dataset, batch)
        return err
    }
    return newAxiomSink(send, zerolog.InfoLevel, opts.AxiomFlush, axiomBatchMax), nil
}

func newAxiomSink(send func(context.Context, []axiom.Event) error, min zerolog.Level, every time.Duration, batchMax int) *axiomSink {
    if every <= 0 { every = 10 * time.Second }
    s := &axiomSink{
        send:     send,
        min:      min,
        batchMax: batchMax,
        queue:    make(chan axiom.Event, axiomQueue),
        stop:     make(chan struct{}),
        done:     make(chan struct{}),
    }
    go s.run(every)
    return s
}

func (s *axiomSink) Write(p []byte) (int, error) { return s.WriteLevel(zerolog.NoLevel, p) }

func (s *axiomSink) WriteLevel(l zerolog.Level, p []byte) (int, error) {
    if l != zerolog.NoLevel && l < s.min {
        return len(p), nil
    }
    ev := axiom.Event{}
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = axiom.Event{"message": string(p)}
    }
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }
    select {
    case s.queue <- ev:
    default:
        s.dropped.Add(1)
    }
    return len(p), nil
}

func (s *axiomSink) run(every time.Duration) {
    defer close(s.done)
    ticker := time.NewTicker(every)
    defer ticker.Stop()

    batch := make([]axiom.Event, 0, s.batchMax)
    flush := func() {
        if len(batch) == 0 { return }
        ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
        err := s.send(ctx, batch)
        cancel()
        if err != nil && s.failures.Add(1) == 1 {
            fmt.Fprintf(os.Stderr, "axiom ingest failed: %v\n", err)
        }
        batch = make([]axiom.Event, 0, s.batchMax)
    }
    add := func(ev axiom.Event) {
        batch = append(batch, ev)
        if len(batch) >= s.batchMax { flush() }
    }

    for {
        select {
        case <-s.stop:
            for {
                select {
                case ev := <-s.queue:
                    add(ev)
                default:
                    flush()
                    return
                }
            }
        case <-ticker.C:
            flush()
        case ev := <-s.queue:
            add(ev)
        }
    }
}

// Close drains the queue and waits for the last batch.
func (s *axiomSink) Close() {
    s.once.Do(func() { close(s.stop) })
    <-s.done
    if n := s.dropped.Load(); n > 0 {
        fmt.Fprintf(os.Stderr, "axiom dropped %d events\n", n)
    }
}
