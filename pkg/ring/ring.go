// Package ring implements the bounded FIFO byte ring backing one priority
// tier. Records are encoded wire frames laid out back to back; the ring
// discovers record boundaries from each frame's own length field.
package ring

import (
    "errors"
    "fmt"
    "sync"

    "tierbus/pkg/wire"
)

var (
    // ErrFull is the transient backpressure signal: the frame does not fit
    // right now. The producer decides whether to retry, drop, or escalate.
    ErrFull = errors.New("ring: buffer full")
    // ErrEmpty means no complete frame is stored.
    ErrEmpty = errors.New("ring: buffer empty")
    // ErrMessageExceedsCapacity means the frame can never fit this ring,
    // regardless of how much is drained. Distinct from ErrFull on purpose.
    ErrMessageExceedsCapacity = errors.New("ring: message exceeds ring capacity")
)

// State is a snapshot of ring occupancy for stats and debugging.
type State struct {
    Capacity int
    Used     int
    Messages int
    ReadPos  int
    WritePos int
}

// Ring is a fixed-capacity circular byte buffer. A single mutex guards the
// cursors; writers and readers block only for the critical section, never
// for space or data. Safe for concurrent producers and consumers.
type Ring struct {
    mu   sync.Mutex
    buf  []byte
    rpos int
    wpos int
    used int
    msgs int
}

// New allocates a ring with the given capacity in ordinary process memory.
func New(capacity int) (*Ring, error) {
    if capacity <= 0 {
        return nil, fmt.Errorf("ring: invalid capacity %d", capacity)
    }
    return &Ring{buf: make([]byte, capacity)}, nil
}

// NewWithBuffer wraps an externally allocated region (e.g. an mmap'd,
// NUMA-bound segment). The ring takes exclusive ownership of buf until the
// owner releases the region.
func NewWithBuffer(buf []byte) (*Ring, error) {
    if len(buf) == 0 {
        return nil, errors.New("ring: empty backing buffer")
    }
    return &Ring{buf: buf}, nil
}

// Write appends one encoded frame. The append is atomic: on error nothing
// is visible to readers and the ring is unchanged. Never waits for space.
func (r *Ring) Write(frame []byte) error {
    n := len(frame)
    r.mu.Lock()
    defer r.mu.Unlock()
    if n > len(r.buf) {
        return fmt.Errorf("%w: %d > %d", ErrMessageExceedsCapacity, n, len(r.buf))
    }
    if r.used+n > len(r.buf) {
        return ErrFull
    }
    r.copyIn(frame)
    r.wpos = (r.wpos + n) % len(r.buf)
    r.used += n
    r.msgs++
    return nil
}

// Read removes and returns the oldest frame. The frame length comes from
// the stored header, so no side table is kept. Never waits for data.
func (r *Ring) Read() ([]byte, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.msgs == 0 {
        return nil, ErrEmpty
    }
    var hdr [wire.HeaderSize]byte
    r.copyOut(hdr[:], r.rpos)
    total, err := wire.FrameLen(hdr[:])
    if err != nil {
        return nil, fmt.Errorf("ring: corrupt record at %d: %w", r.rpos, err)
    }
    if total > r.used {
        return nil, fmt.Errorf("ring: corrupt record at %d: length %d, used %d: %w",
            r.rpos, total, r.used, wire.ErrTruncated)
    }
    out := make([]byte, total)
    r.copyOut(out, r.rpos)
    r.rpos = (r.rpos + total) % len(r.buf)
    r.used -= total
    r.msgs--
    return out, nil
}

// Len returns the number of used bytes.
func (r *Ring) Len() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.used
}

// Messages returns the number of stored frames.
func (r *Ring) Messages() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.msgs
}

// Capacity returns the fixed capacity in bytes.
func (r *Ring) Capacity() int { return len(r.buf) }

// State returns a consistent occupancy snapshot.
func (r *Ring) State() State {
    r.mu.Lock()
    defer r.mu.Unlock()
    return State{
        Capacity: len(r.buf),
        Used:     r.used,
        Messages: r.msgs,
        ReadPos:  r.rpos,
        WritePos: r.wpos,
    }
}

// copyIn writes src at the write cursor, splitting at the wrap boundary.
// Caller holds the lock and has verified the frame fits.
func (r *Ring) copyIn(src []byte) {
    n := copy(r.buf[r.wpos:], src)
    if n < len(src) {
        copy(r.buf, src[n:])
    }
}

// copyOut fills dst starting at pos, splitting at the wrap boundary.
// dst may be longer than the used region only if the ring is corrupt;
// bounds are still respected.
func (r *Ring) copyOut(dst []byte, pos int) {
    n := copy(dst, r.buf[pos:])
    if n < len(dst) {
        copy(dst[n:], r.buf)
    }
}
