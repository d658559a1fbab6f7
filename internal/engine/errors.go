package engine

import "errors"

var (
	// ErrEmptyQueue means Play was asked to start with nothing queued.
	ErrEmptyQueue = errors.New("engine: queue is empty")
	// ErrNoTrackLoaded means an operation needs an open session.
	ErrNoTrackLoaded = errors.New("engine: no track loaded")
	// ErrDevice wraps output device start/stop failures.
	ErrDevice = errors.New("engine: audio device error")
	// ErrClosed means the engine was already closed.
	ErrClosed = errors.New("engine: closed")
)
