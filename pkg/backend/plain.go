package backend

import (
    "sync/atomic"

    "go.uber.org/zap"

    "tierbus/pkg/engine"
    "tierbus/pkg/wire"
)

// plainAdapter runs an engine over ordinary heap allocations.
type plainAdapter struct {
    eng    *engine.Engine
    log    *zap.Logger
    closed atomic.Bool
}

// New creates the plain backend: one heap-allocated ring per tier.
func New(opts Options) (Adapter, error) {
    eng, err := engine.New(engine.Options{
        CapacityPerTier: opts.CapacityPerTier,
        MaxPayloadSize:  opts.MaxPayloadSize,
    })
    if err != nil {
        return nil, err
    }
    log := opts.logger()
    log.Info("transport backend created",
        zap.String("kind", KindPlain.String()),
        zap.Int("capacity_per_tier", eng.Snapshot().Tiers[0].Capacity),
        zap.Int("max_payload", eng.MaxPayloadSize()))
    return &plainAdapter{eng: eng, log: log}, nil
}

func (a *plainAdapter) Write(pri wire.Priority, h *wire.Header, payload []byte) error {
    if a.closed.Load() {
        return ErrClosed
    }
    return a.eng.Write(pri, h, payload)
}

func (a *plainAdapter) Read(pri wire.Priority) (wire.Header, []byte, error) {
    if a.closed.Load() {
        return wire.Header{}, nil, ErrClosed
    }
    return a.eng.Read(pri)
}

func (a *plainAdapter) ReadAny() (wire.Priority, wire.Header, []byte, error) {
    if a.closed.Load() {
        return 0, wire.Header{}, nil, ErrClosed
    }
    return a.eng.ReadAny()
}

func (a *plainAdapter) Snapshot() engine.Snapshot {
    if a.closed.Load() {
        return engine.Snapshot{}
    }
    return a.eng.Snapshot()
}

func (a *plainAdapter) Stats(kind StatKind) (uint64, error) {
    if a.closed.Load() {
        return 0, ErrClosed
    }
    return engineStat(a.eng, kind)
}

func (a *plainAdapter) Kind() Kind { return KindPlain }

func (a *plainAdapter) Destroy() error {
    if a.closed.Swap(true) {
        return nil
    }
    // Heap rings are reclaimed by the GC once callers drop the adapter.
    a.log.Info("transport backend destroyed", zap.String("kind", KindPlain.String()))
    return nil
}

// engineStat maps the backend-agnostic stat kinds onto an engine snapshot.
// Backend-specific kinds are the caller's business.
func engineStat(e *engine.Engine, kind StatKind) (uint64, error) {
    s := e.Snapshot()
    switch kind {
    case StatUsedBytes:
        var n uint64
        for _, t := range s.Tiers {
            n += uint64(t.Used)
        }
        return n, nil
    case StatCapacityBytes:
        var n uint64
        for _, t := range s.Tiers {
            n += uint64(t.Capacity)
        }
        return n, nil
    case StatMessages:
        var n uint64
        for _, t := range s.Tiers {
            n += uint64(t.Messages)
        }
        return n, nil
    case StatWrites:
        return s.Writes, nil
    case StatReads:
        return s.Reads, nil
    case StatDrops:
        return s.Drops, nil
    default:
        return 0, ErrUnsupported
    }
}
