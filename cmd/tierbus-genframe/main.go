package main

import (
    "encoding/hex"
    "flag"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    "tierbus/pkg/codec"
    "tierbus/pkg/wire"
)

func main() {
    outDir := flag.String("out", "testdata/frame", "output directory for binary frames")
    maxPayload := flag.Int("max-payload", 64<<10, "payload size bound used for encoding")
    flag.Parse()
    if err := os.MkdirAll(*outDir, 0o755); err != nil { log.Fatal(err) }

    // Build a base header
    h := wire.Header{
        MsgType:   wire.MsgData,
        Priority:  wire.High,
        Timestamp: uint64(time.Now().UnixNano()),
        Sequence:  1,
        SourceID:  1001,
        Targets:   []uint32{2002, 2003},
    }

    reg := codec.NewRegistry()
    if c, err := codec.CBOR(); err == nil { reg.Register(c) }

    // 1) JSON payload frame
    payload, err := reg.Get(codec.ContentJSON).Marshal(map[string]any{"ok": true, "n": 42})
    if err != nil { log.Fatal(err) }
    frame := mustFrame(&h, payload, *maxPayload)
    writeOut(*outDir, "frame_json.bin", frame)

    // 2) CBOR payload frame
    if c := reg.Get(codec.ContentCBOR); c != nil {
        h2 := h
        h2.Sequence = 2
        payload, err := c.Marshal(map[string]any{"n": 42})
        if err != nil { log.Fatal(err) }
        writeOut(*outDir, "frame_cbor.bin", mustFrame(&h2, payload, *maxPayload))
    }

    // 3) Empty payload control frame on the Critical tier
    h3 := h
    h3.MsgType = wire.MsgControl
    h3.Priority = wire.Critical
    h3.Sequence = 3
    writeOut(*outDir, "frame_control_empty.bin", mustFrame(&h3, nil, *maxPayload))

    // 4) Deliberately corrupted frame for decoder testing
    bad := append([]byte(nil), frame...)
    bad[wire.HeaderSize] ^= 0xFF
    writeOut(*outDir, "frame_corrupt.bin", bad)

    fmt.Println("Generated frames in", *outDir)
}

func mustFrame(h *wire.Header, payload []byte, maxPayload int) []byte {
    b, err := wire.Encode(h, payload, maxPayload)
    if err != nil { log.Fatal(err) }
    return b
}

func writeOut(dir, name string, b []byte) {
    p := filepath.Join(dir, name)
    if err := os.WriteFile(p, b, 0o644); err != nil { log.Fatal(err) }
    fmt.Printf("%-24s %5d bytes  head: %s\n", name, len(b), shortHex(b, 48))
}

func shortHex(b []byte, n int) string {
    if len(b) == 0 { return "" }
    if n > len(b) { n = len(b) }
    enc := hex.EncodeToString(b[:n])
    var out []string
    for i := 0; i < len(enc); i += 4 {
        j := i + 4
        if j > len(enc) { j = len(enc) }
        out = append(out, enc[i:j])
    }
    return strings.Join(out, " ")
}
