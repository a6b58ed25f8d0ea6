package backend

import (
    "sync"

    "go.uber.org/zap"

    "tierbus/pkg/engine"
    "tierbus/pkg/wire"
)

// numaAdapter runs an engine over mmap'd regions bound to one memory node.
//
// mu orders operations against Destroy: operations hold the read lock for
// their full duration, so Destroy cannot unmap a region while a copy into
// or out of it is in flight. A closed check alone would let an operation
// slip past and fault on the unmapped pages.
type numaAdapter struct {
    mu      sync.RWMutex
    eng     *engine.Engine
    regions [][]byte
    node    uint32
    log     *zap.Logger
    closed  bool
}

// NewNUMA creates the NUMA-local backend: each tier's ring is placed on
// the given memory node. On platforms without NUMA support, or when the
// kernel refuses the binding, it falls back to the plain backend and
// reports the capability downgrade instead of failing hard; the returned
// adapter's Kind tells which strategy is actually in effect.
func NewNUMA(opts Options, node uint32) (Adapter, error) {
    capacity := opts.CapacityPerTier
    if capacity <= 0 {
        capacity = engine.DefaultCapacityPerTier
    }
    log := opts.logger()

    regions := make([][]byte, 0, wire.NumPriorities)
    for i := 0; i < int(wire.NumPriorities); i++ {
        mem, err := allocNode(capacity, node)
        if err != nil {
            for _, r := range regions {
                freeNode(r)
            }
            log.Warn("NUMA-local allocation unavailable, downgrading to plain backend",
                zap.Uint32("node", node), zap.Error(err))
            return New(opts)
        }
        regions = append(regions, mem)
    }

    eng, err := engine.NewWithBuffers(regions, opts.MaxPayloadSize)
    if err != nil {
        for _, r := range regions {
            freeNode(r)
        }
        return nil, err
    }
    log.Info("transport backend created",
        zap.String("kind", KindNUMALocal.String()),
        zap.Uint32("node", node),
        zap.Int("capacity_per_tier", capacity),
        zap.Int("max_payload", eng.MaxPayloadSize()))
    return &numaAdapter{eng: eng, regions: regions, node: node, log: log}, nil
}

func (a *numaAdapter) Write(pri wire.Priority, h *wire.Header, payload []byte) error {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return ErrClosed
    }
    return a.eng.Write(pri, h, payload)
}

func (a *numaAdapter) Read(pri wire.Priority) (wire.Header, []byte, error) {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return wire.Header{}, nil, ErrClosed
    }
    return a.eng.Read(pri)
}

func (a *numaAdapter) ReadAny() (wire.Priority, wire.Header, []byte, error) {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return 0, wire.Header{}, nil, ErrClosed
    }
    return a.eng.ReadAny()
}

func (a *numaAdapter) Snapshot() engine.Snapshot {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return engine.Snapshot{}
    }
    return a.eng.Snapshot()
}

func (a *numaAdapter) Stats(kind StatKind) (uint64, error) {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return 0, ErrClosed
    }
    if kind == StatNUMANode {
        return uint64(a.node), nil
    }
    return engineStat(a.eng, kind)
}

func (a *numaAdapter) Kind() Kind { return KindNUMALocal }

// Destroy unmaps the node-bound regions. The write lock waits out every
// in-flight operation first, so nothing aliases the regions afterwards.
// Idempotent; all operations return ErrClosed once it completes.
func (a *numaAdapter) Destroy() error {
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.closed {
        return nil
    }
    a.closed = true
    var firstErr error
    for _, r := range a.regions {
        if err := freeNode(r); err != nil && firstErr == nil {
            firstErr = err
        }
    }
    a.regions = nil
    a.eng = nil
    a.log.Info("transport backend destroyed",
        zap.String("kind", KindNUMALocal.String()), zap.Uint32("node", a.node))
    return firstErr
}
