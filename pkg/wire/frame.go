package wire

import (
    "encoding/binary"
    "errors"
    "fmt"
    "hash/crc32"
)

// Encode errors.
var (
    ErrPayloadTooLarge = errors.New("wire: payload exceeds maximum size")
    ErrTooManyTargets  = errors.New("wire: too many targets")
    ErrBadPriority     = errors.New("wire: invalid priority")
)

// Decode errors. All malformed input maps to one of these; Decode never panics.
var (
    ErrBadMagic           = errors.New("wire: bad magic")
    ErrUnsupportedVersion = errors.New("wire: unsupported version")
    ErrChecksumMismatch   = errors.New("wire: checksum mismatch")
    ErrTruncated          = errors.New("wire: truncated frame")
)

// Encode serializes header and payload into one frame. It fills PayloadLen
// and computes the CRC32 over everything except the checksum field itself.
// maxPayload bounds the payload; pass the engine's configured maximum.
func Encode(h *Header, payload []byte, maxPayload int) ([]byte, error) {
    if len(payload) > maxPayload {
        return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), maxPayload)
    }
    if len(h.Targets) > MaxTargets {
        return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTargets, len(h.Targets), MaxTargets)
    }
    if !h.Priority.Valid() {
        return nil, fmt.Errorf("%w: %d", ErrBadPriority, h.Priority)
    }
    if h.Version == 0 {
        h.Version = Version
    }

    frame := make([]byte, HeaderSize+len(payload))
    h.marshal(frame, len(payload))
    copy(frame[HeaderSize:], payload)

    crc := crc32.ChecksumIEEE(frame[:checksumOffset])
    crc = crc32.Update(crc, crc32.IEEETable, frame[HeaderSize:])
    binary.LittleEndian.PutUint32(frame[checksumOffset:HeaderSize], crc)
    return frame, nil
}

// Decode parses one frame. The checksum is verified before any field is
// trusted; a mismatch is corruption, never silently ignored.
func Decode(frame []byte) (Header, []byte, error) {
    var h Header
    if len(frame) < HeaderSize {
        return h, nil, fmt.Errorf("%w: %d bytes, need %d header bytes", ErrTruncated, len(frame), HeaderSize)
    }
    if binary.LittleEndian.Uint32(frame[0:4]) != Magic {
        return h, nil, ErrBadMagic
    }
    if v := binary.LittleEndian.Uint16(frame[4:6]); v > Version {
        return h, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
    }
    payloadLen := int(binary.LittleEndian.Uint32(frame[72:76]))
    if len(frame) < HeaderSize+payloadLen {
        return h, nil, fmt.Errorf("%w: %d bytes, payload_len %d", ErrTruncated, len(frame), payloadLen)
    }
    frame = frame[:HeaderSize+payloadLen]

    want := binary.LittleEndian.Uint32(frame[checksumOffset:HeaderSize])
    crc := crc32.ChecksumIEEE(frame[:checksumOffset])
    crc = crc32.Update(crc, crc32.IEEETable, frame[HeaderSize:])
    if crc != want {
        return h, nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, crc, want)
    }
    if n := binary.LittleEndian.Uint32(frame[36:40]); n > MaxTargets {
        return h, nil, fmt.Errorf("%w: target_count %d", ErrTooManyTargets, n)
    }

    h.unmarshal(frame)
    payload := append([]byte(nil), frame[HeaderSize:]...)
    return h, payload, nil
}

// FrameLen reports the total encoded length of the frame whose first
// HeaderSize bytes are prefix. Rings use it to discover record boundaries
// without an external length table.
func FrameLen(prefix []byte) (int, error) {
    if len(prefix) < HeaderSize {
        return 0, ErrTruncated
    }
    if binary.LittleEndian.Uint32(prefix[0:4]) != Magic {
        return 0, ErrBadMagic
    }
    return HeaderSize + int(binary.LittleEndian.Uint32(prefix[72:76])), nil
}
