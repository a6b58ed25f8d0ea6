package engine

import (
    "bytes"
    "errors"
    "fmt"
    "testing"

    "tierbus/pkg/ring"
    "tierbus/pkg/wire"
)

func newEngine(t *testing.T, capacity int) *Engine {
    t.Helper()
    e, err := New(Options{CapacityPerTier: capacity, MaxPayloadSize: 4096})
    if err != nil { t.Fatalf("new engine: %v", err) }
    return e
}

func TestWriteReadPerTier(t *testing.T) {
    e := newEngine(t, 8192)
    for pri := wire.Critical; pri < wire.NumPriorities; pri++ {
        h := wire.Header{MsgType: wire.MsgData, Sequence: uint64(pri), SourceID: 7}
        payload := []byte(fmt.Sprintf("tier %s", pri))
        if err := e.Write(pri, &h, payload); err != nil { t.Fatalf("write %s: %v", pri, err) }
    }
    for pri := wire.Critical; pri < wire.NumPriorities; pri++ {
        h, payload, err := e.Read(pri)
        if err != nil { t.Fatalf("read %s: %v", pri, err) }
        if h.Priority != pri { t.Fatalf("stored priority %s, want %s", h.Priority, pri) }
        if want := fmt.Sprintf("tier %s", pri); string(payload) != want {
            t.Fatalf("payload %q, want %q", payload, want)
        }
    }
}

func TestTierIsolation(t *testing.T) {
    e := newEngine(t, 8192)
    h := wire.Header{MsgType: wire.MsgData}
    if err := e.Write(wire.Low, &h, []byte("low only")); err != nil { t.Fatalf("write: %v", err) }
    if _, _, err := e.Read(wire.High); !errors.Is(err, ring.ErrEmpty) {
        t.Fatalf("High tier should be empty, got %v", err)
    }
    if _, _, err := e.Read(wire.Low); err != nil { t.Fatalf("read low: %v", err) }
}

func TestFIFOWithinTier(t *testing.T) {
    e := newEngine(t, 1 << 16)
    for i := 0; i < 20; i++ {
        h := wire.Header{MsgType: wire.MsgData, Sequence: uint64(i)}
        if err := e.Write(wire.Medium, &h, nil); err != nil { t.Fatalf("write %d: %v", i, err) }
    }
    for i := 0; i < 20; i++ {
        h, _, err := e.Read(wire.Medium)
        if err != nil { t.Fatalf("read %d: %v", i, err) }
        if h.Sequence != uint64(i) { t.Fatalf("sequence %d at position %d", h.Sequence, i) }
    }
}

// Interleaved writes to Critical and Low must drain Critical completely
// before ReadAny ever touches Low.
func TestReadAnyStrictPriority(t *testing.T) {
    e := newEngine(t, 1 << 16)
    for i := 0; i < 5; i++ {
        h := wire.Header{MsgType: wire.MsgData, Sequence: uint64(i)}
        if err := e.Write(wire.Low, &h, []byte("low")); err != nil { t.Fatalf("write low: %v", err) }
        h = wire.Header{MsgType: wire.MsgData, Sequence: uint64(100 + i)}
        if err := e.Write(wire.Critical, &h, []byte("crit")); err != nil { t.Fatalf("write crit: %v", err) }
    }

    var order []wire.Priority
    for {
        pri, _, _, err := e.ReadAny()
        if errors.Is(err, ring.ErrEmpty) { break }
        if err != nil { t.Fatalf("readany: %v", err) }
        order = append(order, pri)
    }
    if len(order) != 10 { t.Fatalf("drained %d messages", len(order)) }
    for i, pri := range order {
        if i < 5 && pri != wire.Critical { t.Fatalf("position %d drained %s before Critical emptied", i, pri) }
        if i >= 5 && pri != wire.Low { t.Fatalf("position %d = %s, want Low", i, pri) }
    }
}

func TestReadAnyEmpty(t *testing.T) {
    e := newEngine(t, 4096)
    if _, _, _, err := e.ReadAny(); !errors.Is(err, ring.ErrEmpty) {
        t.Fatalf("want ErrEmpty, got %v", err)
    }
}

func TestBadPriority(t *testing.T) {
    e := newEngine(t, 4096)
    h := wire.Header{}
    if err := e.Write(wire.NumPriorities, &h, nil); !errors.Is(err, wire.ErrBadPriority) {
        t.Fatalf("write: %v", err)
    }
    if _, _, err := e.Read(wire.Priority(99)); !errors.Is(err, wire.ErrBadPriority) {
        t.Fatalf("read: %v", err)
    }
}

// The admission scenario: 1024-byte tier, three 200-byte frames fit,
// a fourth 500-byte frame is rejected until one frame is drained.
func TestBackpressureScenario(t *testing.T) {
    e := newEngine(t, 1024)
    small := make([]byte, 200-wire.HeaderSize) // 200-byte encoded frame
    big := make([]byte, 500-wire.HeaderSize)   // 500-byte encoded frame

    for i := 0; i < 3; i++ {
        h := wire.Header{Sequence: uint64(i)}
        if err := e.Write(wire.High, &h, small); err != nil { t.Fatalf("write %d: %v", i, err) }
    }
    used, _, err := e.Tier(wire.High)
    if err != nil { t.Fatalf("tier: %v", err) }
    if used != 600 { t.Fatalf("used = %d, want 600", used) }

    h := wire.Header{Sequence: 9}
    if err := e.Write(wire.High, &h, big); !errors.Is(err, ring.ErrFull) {
        t.Fatalf("want ErrFull, got %v", err)
    }
    if _, _, err := e.Read(wire.High); err != nil { t.Fatalf("read: %v", err) }
    used, _, _ = e.Tier(wire.High)
    if used != 400 { t.Fatalf("used = %d, want 400", used) }
    if err := e.Write(wire.High, &h, big); err != nil {
        t.Fatalf("retry after drain: %v", err)
    }
}

func TestMessageExceedsTierCapacity(t *testing.T) {
    e, err := New(Options{CapacityPerTier: 256, MaxPayloadSize: 4096})
    if err != nil { t.Fatalf("new: %v", err) }
    h := wire.Header{}
    werr := e.Write(wire.Background, &h, make([]byte, 300))
    if !errors.Is(werr, ring.ErrMessageExceedsCapacity) {
        t.Fatalf("want ErrMessageExceedsCapacity, got %v", werr)
    }
}

func TestSnapshotCounters(t *testing.T) {
    e := newEngine(t, 1024)
    payload := make([]byte, 200-wire.HeaderSize)
    for i := 0; i < 5; i++ {
        h := wire.Header{Sequence: uint64(i)}
        _ = e.Write(wire.Critical, &h, payload) // 5 attempts fit, the 6th below drops
    }
    h := wire.Header{Sequence: 9}
    if err := e.Write(wire.Critical, &h, payload); !errors.Is(err, ring.ErrFull) {
        t.Fatalf("expected full tier: %v", err)
    }
    if _, _, err := e.Read(wire.Critical); err != nil { t.Fatalf("read: %v", err) }

    s := e.Snapshot()
    if s.Writes != 5 { t.Fatalf("writes = %d", s.Writes) }
    if s.Reads != 1 { t.Fatalf("reads = %d", s.Reads) }
    if s.Drops != 1 { t.Fatalf("drops = %d", s.Drops) }
    if s.Tiers[wire.Critical].Messages != 4 {
        t.Fatalf("depth = %d", s.Tiers[wire.Critical].Messages)
    }
    if s.Tiers[wire.Critical].Capacity != 1024 {
        t.Fatalf("capacity = %d", s.Tiers[wire.Critical].Capacity)
    }
}

func TestNewWithBuffers(t *testing.T) {
    bufs := make([][]byte, wire.NumPriorities)
    for i := range bufs { bufs[i] = make([]byte, 4096) }
    e, err := NewWithBuffers(bufs, 1024)
    if err != nil { t.Fatalf("new: %v", err) }
    h := wire.Header{MsgType: wire.MsgData}
    if err := e.Write(wire.High, &h, []byte("over provided buffers")); err != nil {
        t.Fatalf("write: %v", err)
    }
    _, payload, err := e.Read(wire.High)
    if err != nil { t.Fatalf("read: %v", err) }
    if !bytes.Equal(payload, []byte("over provided buffers")) { t.Fatal("payload mismatch") }

    if _, err := NewWithBuffers(bufs[:2], 1024); err == nil {
        t.Fatal("short buffer list accepted")
    }
}
