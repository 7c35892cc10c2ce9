package schema

import "errors"

var (
	// ErrSpawnFailed indicates the child process could not be created.
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrMetaUnsupported indicates a keypress requested the meta modifier.
	ErrMetaUnsupported = errors.New("meta modifier not supported")
	// ErrSurfaceDesync indicates the display surface rejected an update.
	ErrSurfaceDesync = errors.New("display surface out of sync")
	// ErrProcessExited indicates the child process has exited.
	ErrProcessExited = errors.New("process exited")
	// ErrWriteFailed indicates a write to a stopped or dead process.
	ErrWriteFailed = errors.New("write to stopped process")
	// ErrSessionNotFound indicates a registry lookup missed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionStopped indicates an operation on a stopped session.
	ErrSessionStopped = errors.New("session stopped")
)
