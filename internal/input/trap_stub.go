//go:build !windows

package input

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// HookSource has no veto-capable implementation on this platform.
type HookSource struct{}

func NewHookSource(zerolog.Logger) *HookSource {
	return &HookSource{}
}

func (s *HookSource) Name() string { return "keyboard hook" }

func (s *HookSource) CanVeto() bool { return false }

func (s *HookSource) Run(context.Context, Handler, func()) error {
	return fmt.Errorf("%w on %s", ErrHookUnavailable, runtime.GOOS)
}
