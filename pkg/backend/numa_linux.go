//go:build linux

package backend

import (
    "fmt"
    "unsafe"

    "golang.org/x/sys/unix"
)

// maxNodeBits is the nodemask width handed to mbind. 64 covers every node
// a single mask word can express; nodes beyond that are rejected up front.
const maxNodeBits = 64

// mpolBind is MPOL_BIND from linux/mempolicy.h; x/sys/unix exposes the
// mbind syscall number but not the policy constants.
const mpolBind = 2

// allocNode maps an anonymous region and binds its pages to the given
// memory node with mbind(2). The mapping is private to this process; the
// binding makes first-touch faults allocate on the requested node.
func allocNode(size int, node uint32) ([]byte, error) {
    if node >= maxNodeBits {
        return nil, fmt.Errorf("backend: node %d out of range", node)
    }
    mem, err := unix.Mmap(-1, 0, size,
        unix.PROT_READ|unix.PROT_WRITE,
        unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
    if err != nil {
        return nil, fmt.Errorf("backend: mmap %d bytes: %w", size, err)
    }
    mask := [1]uint64{1 << node}
    _, _, errno := unix.Syscall6(unix.SYS_MBIND,
        uintptr(unsafe.Pointer(&mem[0])),
        uintptr(len(mem)),
        uintptr(mpolBind),
        uintptr(unsafe.Pointer(&mask[0])),
        maxNodeBits,
        0)
    if errno != 0 {
        _ = unix.Munmap(mem)
        return nil, fmt.Errorf("backend: mbind to node %d: %w", node, errno)
    }
    return mem, nil
}

func freeNode(mem []byte) error {
    if mem == nil {
        return nil
    }
    return unix.Munmap(mem)
}
