package tray

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"keylatch/internal/capture"
)

// Controller is the part of the capture engine the menu drives.
type Controller interface {
	StartCapture(mode, inputMode string) error
	StopCapture() error
	SubscribeState(buffer int) (<-chan capture.Snapshot, func())
}

// CaptureMenu wires start/stop/quit items to an engine and keeps a status
// line current.
type CaptureMenu struct {
	*Tray
	ctrl     Controller
	defaults func() (mode, inputMode string)
	log      zerolog.Logger

	status int
	start  int
	stop   int
}

// NewCaptureMenu builds the menu. defaults supplies the modes used by the
// start item; quit runs when the user picks Quit.
func NewCaptureMenu(ctrl Controller, defaults func() (string, string), quit func(), log zerolog.Logger) *CaptureMenu {
	m := &CaptureMenu{
		Tray:     New("keylatch: keyboard capture"),
		ctrl:     ctrl,
		defaults: defaults,
		log:      log,
	}

	m.status = m.AddLabel(StatusLine(capture.Snapshot{}))
	m.AddSeparator()
	m.start = m.AddMenuItem("Start capture", m.startCapture)
	m.stop = m.AddMenuItem("Stop capture", m.stopCapture)
	m.AddSeparator()
	m.AddMenuItem("Quit", func() {
		m.log.Info().Msg("quit requested from tray")
		if quit != nil {
			quit()
		}
		m.Stop()
	})

	go m.follow()
	return m
}

func (m *CaptureMenu) startCapture() {
	mode, inputMode := m.defaults()
	if err := m.ctrl.StartCapture(mode, inputMode); err != nil {
		m.log.Error().Err(err).Msg("start capture from tray failed")
	}
}

func (m *CaptureMenu) stopCapture() {
	if err := m.ctrl.StopCapture(); err != nil {
		m.log.Error().Err(err).Msg("stop capture from tray failed")
	}
}

func (m *CaptureMenu) follow() {
	states, unsubscribe := m.ctrl.SubscribeState(8)
	defer unsubscribe()

	select {
	case <-m.Ready():
	case <-m.quitCh:
		return
	}
	m.SetItemEnabled(m.stop, false)

	for {
		select {
		case snap, ok := <-states:
			if !ok {
				return
			}
			m.SetItemTitle(m.status, StatusLine(snap))
			m.SetItemChecked(m.start, snap.Active)
			m.SetActive(snap.Active)
			m.SetItemEnabled(m.stop, snap.Active)
		case <-m.quitCh:
			return
		}
	}
}

// StatusLine renders a snapshot for the tray status item.
func StatusLine(s capture.Snapshot) string {
	if !s.Active {
		line := "Capture: idle"
		if !s.SuppressionAvailable {
			line += " (observe only)"
		}
		return line
	}
	line := fmt.Sprintf("Capture: %s/%s", s.Mode, s.InputMode)
	if len(s.Latched) > 0 {
		line += " holding " + strings.Join(s.Latched, " ")
	}
	return line
}
