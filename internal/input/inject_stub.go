//go:build !windows && !linux

package input

import (
	"errors"

	"keylatch/internal/keys"
)

// Injector is unavailable on this platform.
type Injector struct{}

// NewInjector always fails here; the engine then runs without injection.
func NewInjector() (*Injector, error) {
	return nil, errors.New("key injection not supported on this platform")
}

func (i *Injector) InjectKey(keys.Key, bool) error {
	return errors.New("key injection not supported on this platform")
}
