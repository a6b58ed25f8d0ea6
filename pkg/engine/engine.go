// Package engine owns one ring per priority tier and dispatches writes and
// reads by tier. Scheduling across tiers is strict priority.
package engine

import (
    "errors"
    "fmt"
    "sync/atomic"

    "tierbus/pkg/ring"
    "tierbus/pkg/wire"
)

const (
    DefaultCapacityPerTier = 1 << 20 // 1 MiB per tier
    DefaultMaxPayloadSize  = 64 << 10
)

// Options configure a new engine. Zero values pick the defaults above.
type Options struct {
    CapacityPerTier int // bytes per tier ring, identical across tiers
    MaxPayloadSize  int // payloads above this are rejected at write
}

func (o Options) withDefaults() Options {
    if o.CapacityPerTier <= 0 {
        o.CapacityPerTier = DefaultCapacityPerTier
    }
    if o.MaxPayloadSize <= 0 {
        o.MaxPayloadSize = DefaultMaxPayloadSize
    }
    return o
}

// TierState is the per-tier slice of a stats snapshot.
type TierState struct {
    Priority wire.Priority
    Capacity int
    Used     int
    Messages int
}

// Snapshot aggregates per-tier occupancy with cumulative engine counters.
type Snapshot struct {
    Tiers  [wire.NumPriorities]TierState
    Writes uint64
    Reads  uint64
    Drops  uint64 // full-tier write rejections
}

// Engine holds exactly one ring per tier, created eagerly with identical
// capacity. Tiers never contend with each other.
type Engine struct {
    rings      [wire.NumPriorities]*ring.Ring
    maxPayload int

    writes atomic.Uint64
    reads  atomic.Uint64
    drops  atomic.Uint64
}

// New creates an engine with heap-allocated tier rings.
func New(opts Options) (*Engine, error) {
    opts = opts.withDefaults()
    e := &Engine{maxPayload: opts.MaxPayloadSize}
    for p := range e.rings {
        r, err := ring.New(opts.CapacityPerTier)
        if err != nil {
            return nil, fmt.Errorf("engine: tier %s: %w", wire.Priority(p), err)
        }
        e.rings[p] = r
    }
    return e, nil
}

// NewWithBuffers creates an engine over caller-provided backing regions,
// one per tier in priority order. The caller retains ownership of the
// regions and must keep them mapped for the engine's lifetime.
func NewWithBuffers(bufs [][]byte, maxPayload int) (*Engine, error) {
    if len(bufs) != int(wire.NumPriorities) {
        return nil, fmt.Errorf("engine: need %d tier buffers, got %d", wire.NumPriorities, len(bufs))
    }
    if maxPayload <= 0 {
        maxPayload = DefaultMaxPayloadSize
    }
    e := &Engine{maxPayload: maxPayload}
    for p, buf := range bufs {
        r, err := ring.NewWithBuffer(buf)
        if err != nil {
            return nil, fmt.Errorf("engine: tier %s: %w", wire.Priority(p), err)
        }
        e.rings[p] = r
    }
    return e, nil
}

// MaxPayloadSize returns the configured payload bound.
func (e *Engine) MaxPayloadSize() int { return e.maxPayload }

// Write encodes the message and appends it to the tier selected by pri.
// The header's Priority field is overwritten with pri so the stored frame
// and its ring always agree. Full tiers reject immediately; that rejection
// is the backpressure signal and is counted as a drop.
func (e *Engine) Write(pri wire.Priority, h *wire.Header, payload []byte) error {
    if !pri.Valid() {
        return fmt.Errorf("%w: %d", wire.ErrBadPriority, pri)
    }
    h.Priority = pri
    frame, err := wire.Encode(h, payload, e.maxPayload)
    if err != nil {
        return err
    }
    if err := e.rings[pri].Write(frame); err != nil {
        if errors.Is(err, ring.ErrFull) {
            e.drops.Add(1)
        }
        return err
    }
    e.writes.Add(1)
    return nil
}

// Read pops and decodes the oldest message in the given tier. A checksum
// mismatch is surfaced to the caller, never retried here.
func (e *Engine) Read(pri wire.Priority) (wire.Header, []byte, error) {
    if !pri.Valid() {
        return wire.Header{}, nil, fmt.Errorf("%w: %d", wire.ErrBadPriority, pri)
    }
    frame, err := e.rings[pri].Read()
    if err != nil {
        return wire.Header{}, nil, err
    }
    h, payload, err := wire.Decode(frame)
    if err != nil {
        return wire.Header{}, nil, err
    }
    e.reads.Add(1)
    return h, payload, nil
}

// ReadAny scans tiers in priority order (Critical first) and returns the
// oldest message of the first non-empty tier. Scheduling is strict
// priority: a busy Critical producer starves lower tiers. Callers needing
// fairness must throttle above this layer.
func (e *Engine) ReadAny() (wire.Priority, wire.Header, []byte, error) {
    for pri := wire.Critical; pri < wire.NumPriorities; pri++ {
        h, payload, err := e.Read(pri)
        if errors.Is(err, ring.ErrEmpty) {
            continue
        }
        return pri, h, payload, err
    }
    return 0, wire.Header{}, nil, ring.ErrEmpty
}

// Tier exposes the per-tier occupancy for admission control.
func (e *Engine) Tier(pri wire.Priority) (used, capacity int, err error) {
    if !pri.Valid() {
        return 0, 0, fmt.Errorf("%w: %d", wire.ErrBadPriority, pri)
    }
    return e.rings[pri].Len(), e.rings[pri].Capacity(), nil
}

// Snapshot collects per-tier state and cumulative counters. Tier states
// are each internally consistent; the snapshot as a whole is advisory.
func (e *Engine) Snapshot() Snapshot {
    var s Snapshot
    for p, r := range e.rings {
        st := r.State()
        s.Tiers[p] = TierState{
            Priority: wire.Priority(p),
            Capacity: st.Capacity,
            Used:     st.Used,
            Messages: st.Messages,
        }
    }
    s.Writes = e.writes.Load()
    s.Reads = e.reads.Load()
    s.Drops = e.drops.Load()
    return s
}
