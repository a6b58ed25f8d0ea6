package wire

import (
    "bytes"
    "encoding/binary"
    "errors"
    "testing"
)

const testMaxPayload = 64 << 10

func sampleHeader() Header {
    return Header{
        Flags:     FlagCompressed,
        MsgType:   MsgData,
        Priority:  High,
        Timestamp: 0x1122334455667788,
        Sequence:  42,
        SourceID:  1001,
        Targets:   []uint32{2002, 2003, 2004},
    }
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
    h := sampleHeader()
    payload := []byte("hello, tiered world")

    frame, err := Encode(&h, payload, testMaxPayload)
    if err != nil { t.Fatalf("encode: %v", err) }
    if len(frame) != HeaderSize+len(payload) {
        t.Fatalf("frame size = %d, want %d", len(frame), HeaderSize+len(payload))
    }

    h2, p2, err := Decode(frame)
    if err != nil { t.Fatalf("decode: %v", err) }
    if !bytes.Equal(p2, payload) { t.Fatalf("payload mismatch: %q", p2) }
    if h2.Version != Version || h2.Flags != h.Flags || h2.MsgType != h.MsgType ||
        h2.Priority != h.Priority || h2.Timestamp != h.Timestamp ||
        h2.Sequence != h.Sequence || h2.SourceID != h.SourceID {
        t.Fatalf("headers differ: %#v vs %#v", h2, h)
    }
    if len(h2.Targets) != 3 || h2.Targets[0] != 2002 || h2.Targets[2] != 2004 {
        t.Fatalf("targets mismatch: %v", h2.Targets)
    }
}

func TestEncodeDecodeEmptyPayload(t *testing.T) {
    h := sampleHeader()
    frame, err := Encode(&h, nil, testMaxPayload)
    if err != nil { t.Fatalf("encode: %v", err) }
    if len(frame) != HeaderSize { t.Fatalf("frame size = %d", len(frame)) }
    _, p, err := Decode(frame)
    if err != nil { t.Fatalf("decode: %v", err) }
    if len(p) != 0 { t.Fatalf("payload = %q, want empty", p) }
}

func TestEncodeRejects(t *testing.T) {
    h := sampleHeader()
    if _, err := Encode(&h, make([]byte, testMaxPayload+1), testMaxPayload); !errors.Is(err, ErrPayloadTooLarge) {
        t.Fatalf("oversize payload: %v", err)
    }
    h = sampleHeader()
    h.Targets = make([]uint32, MaxTargets+1)
    if _, err := Encode(&h, nil, testMaxPayload); !errors.Is(err, ErrTooManyTargets) {
        t.Fatalf("too many targets: %v", err)
    }
    h = sampleHeader()
    h.Priority = NumPriorities
    if _, err := Encode(&h, nil, testMaxPayload); !errors.Is(err, ErrBadPriority) {
        t.Fatalf("bad priority: %v", err)
    }
}

func TestDecodeBadMagic(t *testing.T) {
    h := sampleHeader()
    frame, _ := Encode(&h, []byte("x"), testMaxPayload)
    binary.LittleEndian.PutUint32(frame[0:4], 0xdeadbeef)
    if _, _, err := Decode(frame); !errors.Is(err, ErrBadMagic) {
        t.Fatalf("want ErrBadMagic, got %v", err)
    }
}

func TestDecodeUnsupportedVersion(t *testing.T) {
    h := sampleHeader()
    frame, _ := Encode(&h, []byte("x"), testMaxPayload)
    binary.LittleEndian.PutUint16(frame[4:6], Version+1)
    if _, _, err := Decode(frame); !errors.Is(err, ErrUnsupportedVersion) {
        t.Fatalf("want ErrUnsupportedVersion, got %v", err)
    }
}

func TestDecodeTruncated(t *testing.T) {
    h := sampleHeader()
    frame, _ := Encode(&h, []byte("some payload"), testMaxPayload)
    if _, _, err := Decode(frame[:HeaderSize-1]); !errors.Is(err, ErrTruncated) {
        t.Fatalf("short header: %v", err)
    }
    if _, _, err := Decode(frame[:len(frame)-1]); !errors.Is(err, ErrTruncated) {
        t.Fatalf("short payload: %v", err)
    }
}

// Flipping any single byte outside the checksum field must never decode
// cleanly: either the checksum catches it or a structural check fires first.
func TestDecodeCorruptionDetection(t *testing.T) {
    h := sampleHeader()
    payload := bytes.Repeat([]byte{0x5a}, 200)
    frame, err := Encode(&h, payload, testMaxPayload)
    if err != nil { t.Fatalf("encode: %v", err) }

    for i := 0; i < len(frame); i++ {
        if i >= checksumOffset && i < HeaderSize {
            continue // the checksum field itself is exercised below
        }
        mutated := append([]byte(nil), frame...)
        mutated[i] ^= 0x01
        if _, _, err := Decode(mutated); err == nil {
            t.Fatalf("flip at byte %d decoded cleanly", i)
        }
    }

    // A flipped checksum byte is a mismatch too.
    mutated := append([]byte(nil), frame...)
    mutated[checksumOffset] ^= 0x01
    if _, _, err := Decode(mutated); !errors.Is(err, ErrChecksumMismatch) {
        t.Fatalf("flipped checksum: %v", err)
    }
}

func TestDecodePayloadFlipIsChecksumMismatch(t *testing.T) {
    h := sampleHeader()
    frame, _ := Encode(&h, []byte("payload under test"), testMaxPayload)
    frame[HeaderSize+3] ^= 0x80
    if _, _, err := Decode(frame); !errors.Is(err, ErrChecksumMismatch) {
        t.Fatalf("want ErrChecksumMismatch, got %v", err)
    }
}

func TestFrameLen(t *testing.T) {
    h := sampleHeader()
    payload := []byte("abcdef")
    frame, _ := Encode(&h, payload, testMaxPayload)
    n, err := FrameLen(frame[:HeaderSize])
    if err != nil { t.Fatalf("framelen: %v", err) }
    if n != len(frame) { t.Fatalf("framelen = %d, want %d", n, len(frame)) }
    if _, err := FrameLen(frame[:HeaderSize-1]); !errors.Is(err, ErrTruncated) {
        t.Fatalf("short prefix: %v", err)
    }
}

func TestFlagHelpers(t *testing.T) {
    var h Header
    h.SetFlag(FlagExtended, true)
    if !h.HasFlag(FlagExtended) { t.Fatal("flag not set") }
    h.SetFlag(FlagExtended, false)
    if h.HasFlag(FlagExtended) { t.Fatal("flag not cleared") }
}
