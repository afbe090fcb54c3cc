//go:build !linux

package slotdispatch

// currentOSThreadID falls back to the goroutine id on platforms without a
// portable thread id syscall. Goroutine ids are unique per goroutine, which
// is sufficient for the transcript's purposes since thread goroutines are
// OS-thread-locked.
func currentOSThreadID() uint64 {
	return getGoroutineID()
}
