package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "sync"
    "sync/atomic"
    "syscall"
    "time"

    "go.uber.org/zap"

    "tierbus/pkg/backend"
    "tierbus/pkg/config"
    "tierbus/pkg/observability"
    "tierbus/pkg/poll"
    "tierbus/pkg/ring"
    "tierbus/pkg/wire"
)

func main() {
    cfgPath := flag.String("config", "", "path to config file (YAML)")
    duration := flag.Duration("duration", 5*time.Second, "run time")
    producers := flag.Int("producers", 4, "producer goroutines")
    consumers := flag.Int("consumers", 2, "consumer goroutines")
    payloadSize := flag.Int("payload", 256, "payload bytes per message")
    flag.Parse()

    cfg, err := config.Load(*cfgPath)
    if err != nil {
        fmt.Fprintln(os.Stderr, "config:", err)
        os.Exit(1)
    }
    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        fmt.Fprintln(os.Stderr, "logger:", err)
        os.Exit(1)
    }
    defer logger.Sync()

    adapter, err := buildAdapter(cfg, logger)
    if err != nil {
        logger.Fatal("backend", zap.Error(err))
    }
    defer adapter.Destroy()

    ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer cancel()
    ctx, cancelRun := context.WithTimeout(ctx, *duration)
    defer cancelRun()

    var sent, rejected, received atomic.Uint64
    payload := make([]byte, *payloadSize)
    for i := range payload { payload[i] = byte(i) }

    var wg sync.WaitGroup
    for p := 0; p < *producers; p++ {
        wg.Add(1)
        go func(id int) {
            defer wg.Done()
            var seq uint64
            for ctx.Err() == nil {
                seq++
                h := wire.Header{
                    MsgType:   wire.MsgData,
                    Timestamp: uint64(time.Now().UnixNano()),
                    Sequence:  seq,
                    SourceID:  uint32(id),
                    Targets:   []uint32{0},
                }
                pri := wire.Priority(seq % uint64(wire.NumPriorities))
                err := adapter.Write(pri, &h, payload)
                switch {
                case err == nil:
                    sent.Add(1)
                case errors.Is(err, ring.ErrFull):
                    // backpressure: let consumers catch up
                    rejected.Add(1)
                    time.Sleep(100 * time.Microsecond)
                default:
                    logger.Error("write", zap.Error(err))
                    return
                }
            }
        }(p + 1)
    }

    interval := time.Duration(cfg.Transport.PollIntervalMS) * time.Millisecond
    for c := 0; c < *consumers; c++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            rd := &poll.Reader{Adapter: adapter, Interval: interval}
            for ctx.Err() == nil {
                _, _, _, err := rd.ReadAnyWithTimeout(10 * time.Millisecond)
                switch {
                case err == nil:
                    received.Add(1)
                case errors.Is(err, poll.ErrTimeout):
                    // idle
                default:
                    logger.Error("read", zap.Error(err))
                    return
                }
            }
        }()
    }

    <-ctx.Done()
    wg.Wait()

    snap := adapter.Snapshot()
    fields := []zap.Field{
        zap.Uint64("sent", sent.Load()),
        zap.Uint64("rejected", rejected.Load()),
        zap.Uint64("received", received.Load()),
        zap.Uint64("engine_writes", snap.Writes),
        zap.Uint64("engine_reads", snap.Reads),
        zap.Uint64("engine_drops", snap.Drops),
        zap.String("backend", adapter.Kind().String()),
    }
    for _, t := range snap.Tiers {
        fields = append(fields, zap.Int(fmt.Sprintf("depth_%s", t.Priority), t.Messages))
    }
    logger.Info("bench finished", fields...)
}

func buildAdapter(cfg *config.Config, logger *zap.Logger) (backend.Adapter, error) {
    opts := backend.Options{
        CapacityPerTier: cfg.Transport.CapacityPerTier,
        MaxPayloadSize:  cfg.Transport.MaxPayloadSize,
        Logger:          logger,
    }
    if cfg.Transport.Backend == "numa" {
        return backend.NewNUMA(opts, cfg.Transport.NUMANode)
    }
    return backend.New(opts)
}
