package scrapeerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindFormNotFound  Kind = "form_not_found"
	KindFieldNotFound Kind = "field_not_found"
	KindMissingLink   Kind = "missing_link"
	KindStorage       Kind = "storage"
	KindConfiguration Kind = "configuration"
	KindCancelled     Kind = "cancelled"
	KindInternal      Kind = "internal"
)

// Stages of a run, attached to errors surfaced by the pipeline.
const (
	StageFetch   = "fetch"
	StageSubmit  = "submit"
	StageExtract = "extract"
	StageWrite   = "write"
)

// Sentinels for errors.Is checks. Matching is by Kind only.
var (
	ErrNetwork       = &Error{Kind: KindNetwork}
	ErrFormNotFound  = &Error{Kind: KindFormNotFound}
	ErrFieldNotFound = &Error{Kind: KindFieldNotFound}
	ErrMissingLink   = &Error{Kind: KindMissingLink}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrCancelled     = &Error{Kind: KindCancelled}
	ErrInternal      = &Error{Kind: KindInternal}
)

// Error is a classified scraper error.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Stage != "" {
		prefix = e.Stage + ": " + prefix
	}
	if e.Err != nil {
		if e.Message == "" {
			return fmt.Sprintf("[%s] %v", prefix, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewNetwork(message string, err error) *Error {
	return New(KindNetwork, message, err)
}

func NewFormNotFound(formID string) *Error {
	return New(KindFormNotFound, fmt.Sprintf("form %q not found", formID), nil)
}

func NewFieldNotFound(formID, field string) *Error {
	return New(KindFieldNotFound, fmt.Sprintf("form %q has no field %q", formID, field), nil)
}

func NewMissingLink(index, found int) *Error {
	return New(KindMissingLink, fmt.Sprintf("listing node needs anchor #%d, found %d", index, found), nil)
}

func NewStorage(message string, err error) *Error {
	return New(KindStorage, message, err)
}

func NewConfiguration(message string, err error) *Error {
	return New(KindConfiguration, message, err)
}

// WithStage tags err with the pipeline stage it surfaced in. Classified errors keep
// their Kind; context errors become cancelled and anything else internal.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		if se.Stage != "" {
			return err
		}
		tagged := *se
		tagged.Stage = stage
		return &tagged
	}
	kind := KindInternal
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCancelled
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
