package assets

import (
	"errors"
	"fmt"
)

// Kind classifies a load failure.
type Kind int

const (
	// FetchFailure means the source could not deliver the bytes.
	FetchFailure Kind = iota + 1
	// DecodeFailure means the bytes arrived but were not a valid payload.
	DecodeFailure
	// ConfigurationError means the request or the pipeline was unusable.
	ConfigurationError
)

func (k Kind) String() string {
	switch k {
	case FetchFailure:
		return "fetch"
	case DecodeFailure:
		return "decode"
	case ConfigurationError:
		return "configuration"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is matching against a *LoadError's kind.
var (
	ErrFetch         = errors.New("asset fetch failed")
	ErrDecode        = errors.New("asset decode failed")
	ErrConfiguration = errors.New("asset request misconfigured")

	// ErrClosed is wrapped by submissions made after Pipeline.Close.
	ErrClosed = errors.New("asset pipeline closed")
)

func (k Kind) sentinel() error {
	switch k {
	case FetchFailure:
		return ErrFetch
	case DecodeFailure:
		return ErrDecode
	case ConfigurationError:
		return ErrConfiguration
	}
	return nil
}

// LoadError is the failure reason carried by a failed Outcome.
type LoadError struct {
	Kind Kind
	ID   string // request ID
	Path string // offending asset path, if any
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s: %s %s: %v", e.ID, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %s: %v", e.ID, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *LoadError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func fetchError(id, path string, err error) error {
	return &LoadError{Kind: FetchFailure, ID: id, Path: path, Err: err}
}

func decodeError(id, path string, err error) error {
	return &LoadError{Kind: DecodeFailure, ID: id, Path: path, Err: err}
}

func configError(id string, err error) error {
	return &LoadError{Kind: ConfigurationError, ID: id, Err: err}
}

// KindOf returns the kind of a load error, or 0 if err is not one.
func KindOf(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}
