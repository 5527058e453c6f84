package utils

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var idSeq uint64

// MakeSlug derives a URL-safe slug from a title: lowercase, runs of
// non-alphanumeric characters collapsed to a single hyphen, leading and
// trailing hyphens trimmed. Applying it to an already-slugified string
// returns the same string.
func MakeSlug(title string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// GenID returns a process-unique id combining a nanosecond timestamp with a
// small counter to avoid collisions within the same nanosecond.
func GenID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("%d-%d", n, s)
}
