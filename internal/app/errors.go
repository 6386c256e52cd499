package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning is returned by Start on a started application.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning is returned by Wait before Start.
	ErrNotRunning = errors.New("application not running")

	// ErrNoActiveDocument indicates no document is current.
	ErrNoActiveDocument = errors.New("no active document")

	// ErrBadArgument is returned by a core action given the wrong argument.
	ErrBadArgument = errors.New("bad action argument")
)

// InitError reports the component that failed during New.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// FileError reports a failed file operation.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
