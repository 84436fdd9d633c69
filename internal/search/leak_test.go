//go:build leaktests
// +build leaktests

package search

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/standardbeagle/hexbait/internal/bytesource"
)

// TestEngineCloseLeavesNoGoroutines verifies Close() tears down the
// background worker goroutine started by New().
func TestEngineCloseLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := bytesource.FromBytes([]byte("the quick brown fox"))
	e := New(source)
	e.Search(Request{Patterns: [][]byte{[]byte("fox")}})
	waitForDone(t, e)
	e.Close()
}
