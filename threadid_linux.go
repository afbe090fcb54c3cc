//go:build linux

package slotdispatch

import "golang.org/x/sys/unix"

// currentOSThreadID returns the OS thread id of the calling goroutine's
// current thread. Meaningful as a stable identity only while the goroutine
// is locked to its thread, which [Thread.run] guarantees for thread
// goroutines.
func currentOSThreadID() uint64 {
	return uint64(unix.Gettid())
}
