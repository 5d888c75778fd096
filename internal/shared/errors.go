package shared

import (
	"errors"
	"fmt"
)

var (
	// Failure categories surfaced to callers
	ErrConfig         = fmt.Errorf("configuration error")
	ErrAuth           = fmt.Errorf("authentication failed")
	ErrValidation     = fmt.Errorf("validation failed")
	ErrTransfer       = fmt.Errorf("transfer failed")
	ErrPartialFailure = fmt.Errorf("partial failure")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Session and API errors
	ErrNotConnected       = fmt.Errorf("not connected")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPhotoNotFound      = fmt.Errorf("photo not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Stage names the step of a workflow where an error happened.
type Stage string

const (
	StageConnection Stage = "connection"
	StageSearch     Stage = "search"
	StageAlbums     Stage = "albums"
	StageDownload   Stage = "download"
	StageUpload     Stage = "upload"
	StageThumbnail  Stage = "thumbnail"
)

// StageError carries the failing [Stage], a category sentinel and the server-provided message.
//
// It unwraps to both Kind and Err, so [errors.Is] matches the category as well as the cause.
type StageError struct {
	Stage   Stage
	Kind    error
	Message string
	Err     error
}

// NewStageError builds a [StageError]. kind should be one of the category sentinels.
func NewStageError(stage Stage, kind error, message string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, Err: err}
}

func (e *StageError) Error() string {
	msg := string(e.Stage)
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StageOf reports the stage recorded on the first [StageError] in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// MessageOf returns the server message recorded on the first [StageError] in err's chain, or err's text.
func MessageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
