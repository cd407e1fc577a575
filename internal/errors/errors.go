package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the DOB Link backend

// ErrWidgetNotFound is returned when a widget hash doesn't exist in storage
var ErrWidgetNotFound = errors.New("widget not found")

// ErrPoolNotFound is returned when a liquidity pool id doesn't exist
var ErrPoolNotFound = errors.New("liquidity pool not found")

// ErrHashGenerationFailed is returned when we can't mint a unique widget hash
var ErrHashGenerationFailed = errors.New("failed to generate unique widget hash")

// ErrInvalidEventType is returned when an analytics event names an unknown type
var ErrInvalidEventType = errors.New("invalid analytics event type")

// ErrEventRecordingFailed is returned when persisting an analytics event fails
type ErrEventRecordingFailed struct {
	WidgetHash string
	Reason     string
}

func (e ErrEventRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record event for widget %s: %s", e.WidgetHash, e.Reason)
}
