// Package intel turns generative-provider answers into importer summaries
// and detailed importer profiles.
package intel

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

// Error kinds surfaced by the search and detail services. Test with errors.Is.
var (
	ErrProviderResponseMalformed = eris.New("provider response malformed")
	ErrProviderUnavailable       = eris.New("provider unavailable")
	ErrOperationCancelled        = eris.New("operation cancelled")
	ErrValidation                = eris.New("validation failed")
)

// kindError tags an underlying error with one of the kinds above while
// keeping the original chain reachable.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func withKind(kind, err error) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return err
	}
	return &kindError{kind: kind, err: err}
}

// classifyCall maps a provider call failure to its kind. A cancelled or
// expired context always wins over transport errors.
func classifyCall(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return withKind(ErrOperationCancelled, err)
	}
	return withKind(ErrProviderUnavailable, err)
}
