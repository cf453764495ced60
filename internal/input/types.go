// Package input connects the capture engine to the operating system keyboard:
// event sources that observe (and, where possible, veto) hardware events,
// synthetic key injection, and the foreground-window focus oracle.
package input

import (
	"context"
	"errors"

	"keylatch/internal/capture"
)

// ErrHookUnavailable is returned by a veto-capable source that could not be
// installed. Callers fall back to passive observation.
var ErrHookUnavailable = errors.New("keyboard veto hook unavailable")

// injectionSignature tags every event this process injects so the hook can
// recognize its own input coming back around.
const injectionSignature = 0x4B4C5443

// Handler consumes raw events. The return value asks the source to withhold
// the event from the foreground application; it is ignored when vetoCapable
// is false.
type Handler interface {
	HandleEvent(ev capture.RawEvent, vetoCapable bool) bool
}

// Source is an OS-level keyboard event source.
type Source interface {
	Name() string
	CanVeto() bool
	// Run delivers events to h until ctx is done. ready is called once
	// events are flowing.
	Run(ctx context.Context, h Handler, ready func()) error
}
