package input

import (
	"context"
	"errors"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"

	"keylatch/internal/capture"
	"keylatch/internal/keys"
)

// PassiveSource observes the global keyboard through libuiohook. It cannot
// withhold events and does not decode text.
type PassiveSource struct {
	log zerolog.Logger
}

func NewPassiveSource(log zerolog.Logger) *PassiveSource {
	return &PassiveSource{log: log}
}

func (p *PassiveSource) Name() string { return "passive listener" }

func (p *PassiveSource) CanVeto() bool { return false }

func (p *PassiveSource) Run(ctx context.Context, h Handler, ready func()) error {
	events := hook.Start()
	defer hook.End()
	ready()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("event stream closed")
			}
			raw, ok := translatePassive(ev)
			if !ok {
				continue
			}
			p.log.Trace().Str("key", raw.Key.Code()).Str("phase", string(raw.Phase)).Msg("passive event")
			h.HandleEvent(raw, false)
		}
	}
}

// libuiohook reports KeyHold for the physical press and KeyDown for the
// typed character; only the former is a transition.
func translatePassive(ev hook.Event) (capture.RawEvent, bool) {
	var phase capture.Phase
	switch ev.Kind {
	case hook.KeyHold:
		phase = capture.PhaseDown
	case hook.KeyUp:
		phase = capture.PhaseUp
	default:
		return capture.RawEvent{}, false
	}
	return capture.RawEvent{Key: keys.FromUIOHook(ev.Keycode), Phase: phase}, true
}
