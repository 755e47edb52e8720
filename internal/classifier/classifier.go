// Package classifier talks to the external text classification service.
//
// Nothing returned from here is trusted: callers validate every completion
// against the ticket vocabularies before using it.
package classifier

import "context"

// Client sends one instruction plus one input text and returns the raw
// completion text.
type Client interface {
	Complete(ctx context.Context, instruction, input string) (string, error)
}
