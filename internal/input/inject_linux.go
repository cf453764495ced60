//go:build linux

package input

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"

	"keylatch/internal/keys"
)

// Injector synthesizes key transitions through a uinput virtual keyboard.
type Injector struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewInjector needs write access to /dev/uinput.
func NewInjector() (*Injector, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	return &Injector{kb: kb}, nil
}

func (i *Injector) InjectKey(k keys.Key, release bool) error {
	code, ok := keys.Evdev(k)
	if !ok {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.kb.Clear()
	i.kb.SetKeys(code)
	if release {
		return i.kb.Release()
	}
	return i.kb.Press()
}
