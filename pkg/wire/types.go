package wire

// Priority selects which ring a message is stored in. Lower value = more urgent.
type Priority uint32

const (
    Critical Priority = iota
    High
    Medium
    Low
    Background
    NumPriorities
)

// Valid reports whether p names one of the fixed tiers.
func (p Priority) Valid() bool { return p < NumPriorities }

func (p Priority) String() string {
    switch p {
    case Critical:
        return "critical"
    case High:
        return "high"
    case Medium:
        return "medium"
    case Low:
        return "low"
    case Background:
        return "background"
    default:
        return "invalid"
    }
}

// Flags bitmask (uint16). Only FlagExtended is interpreted by the transport;
// the rest are advisory hints passed through to consumers.
const (
    FlagExtended   uint16 = 1 << 0 // extended fields present in payload
    FlagCompressed uint16 = 1 << 1 // payload compressed
    FlagEncrypted  uint16 = 1 << 2 // payload encrypted
)

// Message types are application-defined; the transport never branches on them.
// A few are predeclared for tools and tests.
const (
    MsgUnknown uint32 = iota
    MsgData
    MsgControl
    MsgHeartbeat
)
