// Package poll layers bounded-wait reads over a backend adapter. The
// adapter itself never blocks; this wrapper is the only place waiting
// happens, always caller-initiated and caller-bounded. It owns no storage.
package poll

import (
    "context"
    "errors"
    "time"

    "github.com/valyala/fastrand"

    "tierbus/pkg/backend"
    "tierbus/pkg/ring"
    "tierbus/pkg/wire"
)

// DefaultInterval is the re-check period while a tier stays empty.
const DefaultInterval = time.Millisecond

// ErrTimeout means the timeout elapsed with the tier still empty. Real
// errors (checksum, closed adapter) propagate immediately instead.
var ErrTimeout = errors.New("poll: timeout")

// Reader polls an Adapter until data, a real error, or the bound elapses.
type Reader struct {
    Adapter  backend.Adapter
    Interval time.Duration // poll interval; DefaultInterval when zero
}

// ReadWithTimeout reads from one tier, waiting up to timeout for data.
// timeout = 0 means a single immediate attempt, equivalent to calling the
// adapter directly (an empty tier surfaces ring.ErrEmpty, not ErrTimeout).
func (r *Reader) ReadWithTimeout(pri wire.Priority, timeout time.Duration) (wire.Header, []byte, error) {
    deadline := time.Now().Add(timeout)
    for {
        h, payload, err := r.Adapter.Read(pri)
        if err == nil || !errors.Is(err, ring.ErrEmpty) {
            return h, payload, err
        }
        if timeout == 0 {
            return wire.Header{}, nil, err
        }
        if !time.Now().Before(deadline) {
            return wire.Header{}, nil, ErrTimeout
        }
        sleepUntil(deadline, r.interval())
    }
}

// ReadAnyWithTimeout is ReadWithTimeout over the strict-priority scan.
func (r *Reader) ReadAnyWithTimeout(timeout time.Duration) (wire.Priority, wire.Header, []byte, error) {
    deadline := time.Now().Add(timeout)
    for {
        pri, h, payload, err := r.Adapter.ReadAny()
        if err == nil || !errors.Is(err, ring.ErrEmpty) {
            return pri, h, payload, err
        }
        if timeout == 0 {
            return 0, wire.Header{}, nil, err
        }
        if !time.Now().Before(deadline) {
            return 0, wire.Header{}, nil, ErrTimeout
        }
        sleepUntil(deadline, r.interval())
    }
}

// ReadContext polls one tier until data arrives, a real error occurs, or
// ctx is done. Cancellation is the only unbounded-wait escape hatch.
func (r *Reader) ReadContext(ctx context.Context, pri wire.Priority) (wire.Header, []byte, error) {
    for {
        h, payload, err := r.Adapter.Read(pri)
        if err == nil || !errors.Is(err, ring.ErrEmpty) {
            return h, payload, err
        }
        select {
        case <-ctx.Done():
            return wire.Header{}, nil, ctx.Err()
        case <-time.After(r.interval()):
        }
    }
}

// sleepUntil sleeps for d, capped at the time left to deadline, so a
// timed read never overshoots its bound by more than scheduler latency.
func sleepUntil(deadline time.Time, d time.Duration) {
    if rem := time.Until(deadline); d > rem {
        d = rem
    }
    if d > 0 {
        time.Sleep(d)
    }
}

// interval returns the poll period with a little jitter so many idle
// pollers don't wake in lockstep.
func (r *Reader) interval() time.Duration {
    d := r.Interval
    if d <= 0 {
        d = DefaultInterval
    }
    if q := uint32(d / 4); q > 0 {
        d += time.Duration(fastrand.Uint32n(q))
    }
    return d
}
