//go:build !linux

package backend

import "errors"

// Non-linux platforms have no mbind; NewNUMA downgrades to the plain
// backend when allocNode reports this.
func allocNode(size int, node uint32) ([]byte, error) {
    return nil, errors.New("backend: NUMA-local allocation not supported on this platform")
}

func freeNode(mem []byte) error { return nil }
