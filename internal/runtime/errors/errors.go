package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrAlreadyInstrumented = sterrors.New("flowscope: object is already instrumented")
	ErrNotInstrumented     = sterrors.New("flowscope: object is not instrumented")
	ErrNotStage            = sterrors.New("flowscope: entity is not stage-instrumented")
	ErrNotTransform        = sterrors.New("flowscope: stage has no transform to instrument")
	ErrLinkNotFound        = sterrors.New("flowscope: linkage pair is not recorded")
	ErrReentrantProcess    = sterrors.New("flowscope: re-entrant processing call while context is set")
	ErrUnexpectedCallback  = sterrors.New("flowscope: processing completion carried more than one result")
	ErrEmptyPipeline       = sterrors.New("flowscope: pipeline requires at least one stage")
	ErrNilWarning          = sterrors.New("flowscope: warn requires a non-nil error")
	ErrLoggerRequired      = sterrors.New("flowscope: logger is required")
)

// ConfigValidationError reports an invalid overlay configuration field.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("flowscope: invalid config field %s: %s", e.Field, e.Reason)
}
