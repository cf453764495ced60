package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"keylatch/internal/osutils"
)

// Target is what a Listener feeds: the capture engine.
type Target interface {
	Handler
	SetSuppressionAvailable(available bool)
}

// Listener runs the veto-capable hook and degrades to a passive listener
// when the hook cannot be installed.
type Listener struct {
	primary  Source
	fallback Source
	log      zerolog.Logger
}

// NewListener uses the platform hook first and the passive listener second.
func NewListener(log zerolog.Logger) *Listener {
	return &Listener{
		primary:  NewHookSource(log),
		fallback: NewPassiveSource(log),
		log:      log,
	}
}

// Run blocks until ctx is done or both sources have failed.
func (l *Listener) Run(ctx context.Context, t Target) error {
	err := l.run(ctx, l.primary, t)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	if !errors.Is(err, ErrHookUnavailable) {
		return fmt.Errorf("%s: %w", l.primary.Name(), err)
	}

	l.log.Warn().
		Err(err).
		Bool("elevated", osutils.IsAdmin()).
		Str("fallback", l.fallback.Name()).
		Msg("veto hook unavailable, observing passively; keys will not be suppressed")
	t.SetSuppressionAvailable(false)

	if err := l.run(ctx, l.fallback, t); err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s: %w", l.fallback.Name(), err)
	}
	return nil
}

func (l *Listener) run(ctx context.Context, src Source, t Target) error {
	return src.Run(ctx, t, func() {
		t.SetSuppressionAvailable(src.CanVeto())
		l.log.Info().Str("source", src.Name()).Bool("veto", src.CanVeto()).Msg("keyboard source running")
	})
}
