package errors

import (
	"errors"
	"fmt"

	"github.com/jscyril/audio_tombola/api"
)

// Sentinel errors for common conditions
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrMediaNotFound     = errors.New("media not found")
	ErrMediaReleased     = errors.New("media already released")
	ErrPlaybackFailed    = errors.New("playback failed")
	ErrPlaybackStopped   = errors.New("playback stopped")
	ErrRegistryEmpty     = errors.New("registry is empty")
	ErrWrongPhase        = errors.New("operation not allowed in current phase")
	ErrInvalidVolume     = errors.New("volume must be between 0.0 and 1.0")
)

// PlaybackError wraps playback errors with the operation and media handle
type PlaybackError struct {
	Op  string       // Operation that failed
	Ref api.MediaRef // Media handle if applicable
	Err error
}

func (e *PlaybackError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s failed for media %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError creates a new PlaybackError
func NewPlaybackError(op string, ref api.MediaRef, err error) *PlaybackError {
	return &PlaybackError{Op: op, Ref: ref, Err: err}
}

// MediaError represents an error registering a file
type MediaError struct {
	Path string
	Err  error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media error at %s: %v", e.Path, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// PhaseError reports an operation attempted in the wrong session phase
type PhaseError struct {
	Op    string
	Phase api.Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in %s phase", e.Op, e.Phase)
}

func (e *PhaseError) Unwrap() error {
	return ErrWrongPhase
}
