// Package builder holds the page-builder block tree: the kind registry, the
// template composer, tree helpers and the single-user Editor state machine.
package builder

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces a fresh block id per call.
type IDGenerator func() string

// NewID returns a 16 hex character id carrying 64 random bits.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// SequentialIDs returns a deterministic generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}
