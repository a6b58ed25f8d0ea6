// Package backend presents one capability interface over concrete ring
// buffer engines so callers are not coupled to an allocation strategy.
// Two backends exist today: plain process memory and NUMA-local mappings.
// A DMA/NIC-backed engine would slot in behind the same interface.
package backend

import (
    "errors"

    "go.uber.org/zap"

    "tierbus/pkg/engine"
    "tierbus/pkg/wire"
)

// Kind identifies the concrete allocation strategy behind an Adapter.
type Kind int

const (
    KindPlain Kind = iota
    KindNUMALocal
)

func (k Kind) String() string {
    switch k {
    case KindPlain:
        return "plain"
    case KindNUMALocal:
        return "numa-local"
    default:
        return "unknown"
    }
}

// StatKind selects a statistic from Stats.
type StatKind int

const (
    StatUsedBytes     StatKind = iota // bytes stored across all tiers
    StatCapacityBytes                 // total capacity across all tiers
    StatMessages                      // frames currently stored
    StatWrites                        // cumulative accepted writes
    StatReads                         // cumulative successful reads
    StatDrops                         // cumulative full-tier rejections
    StatNUMANode                      // memory node, NUMA backend only
)

var (
    // ErrUnsupported means the backend does not track the requested
    // statistic. It is never a fabricated zero.
    ErrUnsupported = errors.New("backend: statistic unsupported")
    // ErrClosed means the adapter was destroyed and its storage released.
    ErrClosed = errors.New("backend: adapter destroyed")
)

// Adapter is the capability set every backend satisfies. Any code holding
// an Adapter behaves identically regardless of the concrete backend,
// except Stats, which may report ErrUnsupported.
type Adapter interface {
    // Write stores one message in the tier selected by pri. Full tiers
    // reject immediately (ring.ErrFull); the call never waits for space.
    Write(pri wire.Priority, h *wire.Header, payload []byte) error
    // Read returns the oldest message in the tier, or ring.ErrEmpty
    // immediately. Checksum failures surface as wire.ErrChecksumMismatch.
    Read(pri wire.Priority) (wire.Header, []byte, error)
    // ReadAny drains tiers in strict priority order.
    ReadAny() (wire.Priority, wire.Header, []byte, error)
    // Snapshot reports per-tier depth for observability collaborators.
    Snapshot() engine.Snapshot
    // Stats returns a single aggregate statistic.
    Stats(kind StatKind) (uint64, error)
    // Kind reports the allocation strategy actually in effect (after any
    // capability downgrade at construction).
    Kind() Kind
    // Destroy releases the backing storage. Idempotent; all other
    // operations return ErrClosed afterwards.
    Destroy() error
}

// Options configure adapter construction. Zero values use the engine
// defaults. Logger may be nil; zap.L() is used then.
type Options struct {
    CapacityPerTier int
    MaxPayloadSize  int
    Logger          *zap.Logger
}

func (o Options) logger() *zap.Logger {
    if o.Logger != nil {
        return o.Logger
    }
    return zap.L()
}
