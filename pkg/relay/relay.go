// Package relay streams model completions to browsers over SSE. The wire
// format is a sequence of `data: {"content":"..."}` events followed by a
// single `data: [DONE]` sentinel; clients concatenate the fragments in
// arrival order to reconstruct the reply.
package relay

import (
	"context"
	"errors"

	"mentorhub/pkg/models"
)

// ErrUpstream wraps failures talking to the completion API.
var ErrUpstream = errors.New("upstream completion failed")

// Streamer produces a reply to a conversation as a stream of text fragments.
type Streamer interface {
	// Stream opens a completion for the given messages. Fragments arrive on
	// the returned channel, which is closed when the reply ends. A non-nil
	// error on the errs channel means the stream terminated abnormally;
	// fragments received before the error are still valid.
	Stream(ctx context.Context, msgs []models.Message) (<-chan string, <-chan error)
}
