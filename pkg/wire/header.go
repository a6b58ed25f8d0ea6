// Package wire defines the fixed on-the-wire message layout and its
// CRC32 integrity check. Encode/Decode are pure transformations; storage
// and scheduling live elsewhere.
package wire

import "encoding/binary"

// Fixed header layout (80 bytes). All integer fields are little-endian.
//
//  0  ..3   Magic       u32  'TBUS'
//  4  ..5   Version     u16
//  6  ..7   Flags       u16
//  8  ..11  MsgType     u32
//  12 ..15  Priority    u32
//  16 ..23  Timestamp   u64
//  24 ..31  Sequence    u64
//  32 ..35  SourceID    u32
//  36 ..39  TargetCount u32
//  40 ..71  Targets     [8]u32
//  72 ..75  PayloadLen  u32
//  76 ..79  Checksum    u32 (CRC32 over bytes 0..75 and the payload)
const (
    HeaderSize = 80
    Magic      = uint32(0x54425553) // 'T''B''U''S'
    Version    = uint16(1)
    MaxTargets = 8

    checksumOffset = HeaderSize - 4
)

// Header carries the addressing and framing metadata of one message.
// PayloadLen and Checksum are owned by Encode and ignored on input.
type Header struct {
    Version   uint16
    Flags     uint16
    MsgType   uint32
    Priority  Priority
    Timestamp uint64
    Sequence  uint64
    SourceID  uint32
    Targets   []uint32
}

// marshal writes the header fields into buf[:HeaderSize], leaving the
// checksum field zero. buf must be at least HeaderSize long.
func (h *Header) marshal(buf []byte, payloadLen int) {
    binary.LittleEndian.PutUint32(buf[0:4], Magic)
    binary.LittleEndian.PutUint16(buf[4:6], h.Version)
    binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
    binary.LittleEndian.PutUint32(buf[8:12], h.MsgType)
    binary.LittleEndian.PutUint32(buf[12:16], uint32(h.Priority))
    binary.LittleEndian.PutUint64(buf[16:24], h.Timestamp)
    binary.LittleEndian.PutUint64(buf[24:32], h.Sequence)
    binary.LittleEndian.PutUint32(buf[32:36], h.SourceID)
    binary.LittleEndian.PutUint32(buf[36:40], uint32(len(h.Targets)))
    for i, tgt := range h.Targets {
        binary.LittleEndian.PutUint32(buf[40+4*i:44+4*i], tgt)
    }
    binary.LittleEndian.PutUint32(buf[72:76], uint32(payloadLen))
}

// unmarshal reads the header fields from buf[:HeaderSize]. It performs no
// validation beyond field extraction; Decode owns the checks.
func (h *Header) unmarshal(buf []byte) {
    h.Version = binary.LittleEndian.Uint16(buf[4:6])
    h.Flags = binary.LittleEndian.Uint16(buf[6:8])
    h.MsgType = binary.LittleEndian.Uint32(buf[8:12])
    h.Priority = Priority(binary.LittleEndian.Uint32(buf[12:16]))
    h.Timestamp = binary.LittleEndian.Uint64(buf[16:24])
    h.Sequence = binary.LittleEndian.Uint64(buf[24:32])
    h.SourceID = binary.LittleEndian.Uint32(buf[32:36])
    n := binary.LittleEndian.Uint32(buf[36:40])
    if n > MaxTargets {
        n = MaxTargets // decode rejects the frame before this matters
    }
    h.Targets = make([]uint32, n)
    for i := range h.Targets {
        h.Targets[i] = binary.LittleEndian.Uint32(buf[40+4*i : 44+4*i])
    }
}

// HasFlag checks whether a flag is set.
func (h *Header) HasFlag(flag uint16) bool { return (h.Flags & flag) != 0 }

// SetFlag sets/unsets a flag.
func (h *Header) SetFlag(flag uint16, on bool) {
    if on {
        h.Flags |= flag
    } else {
        h.Flags &^= flag
    }
}
