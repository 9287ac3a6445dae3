package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrSourceNotFound   = errors.New("source not found")
	ErrMarkupParse      = errors.New("markup parse failure")
	ErrNotFitted        = errors.New("featurizer not fitted")
	ErrUnsupportedArity = errors.New("unsupported arity")

	// Annotation service conditions
	ErrDocumentTooLarge   = errors.New("document too large")
	ErrProcessingTimeout  = errors.New("processing timed out")
	ErrServiceUnavailable = errors.New("annotation service unavailable")
)

// DocumentError ties a failure to the document that caused it.
type DocumentError struct {
	DocID   string
	DocName string
	Err     error
}

func (e *DocumentError) Error() string {
	switch {
	case e.DocID != "" && e.DocName != "":
		return fmt.Sprintf("document %s (%s): %v", e.DocID, e.DocName, e.Err)
	case e.DocID != "":
		return fmt.Sprintf("document %s: %v", e.DocID, e.Err)
	case e.DocName != "":
		return fmt.Sprintf("document %s: %v", e.DocName, e.Err)
	}
	return e.Err.Error()
}

func (e *DocumentError) Unwrap() error { return e.Err }

// IsTerminal reports whether err is an annotation failure that retrying the
// same document cannot fix.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrDocumentTooLarge) || errors.Is(err, ErrProcessingTimeout)
}
