package capture

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"keylatch/internal/keys"
)

// Injector synthesizes a key transition at the OS level.
type Injector interface {
	InjectKey(k keys.Key, release bool) error
}

// ReleaseTiming controls how latched keys are let go after a session ends.
type ReleaseTiming struct {
	InitialDelay time.Duration
	Interval     time.Duration
	Passes       int
}

// DefaultReleaseTiming waits 8ms, then releases four times 14ms apart.
func DefaultReleaseTiming() ReleaseTiming {
	return ReleaseTiming{
		InitialDelay: 8 * time.Millisecond,
		Interval:     14 * time.Millisecond,
		Passes:       4,
	}
}

// ReleaseScheduler issues redundant synthetic releases in the background.
// Each schedule owns a private copy of its keys and always runs to the end.
type ReleaseScheduler struct {
	injector Injector
	clock    clock.Clock
	log      zerolog.Logger

	mu     sync.Mutex
	timing ReleaseTiming
}

func NewReleaseScheduler(injector Injector, clk clock.Clock, timing ReleaseTiming, log zerolog.Logger) *ReleaseScheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &ReleaseScheduler{
		injector: injector,
		clock:    clk,
		timing:   timing,
		log:      log,
	}
}

// SetTiming applies to schedules started afterwards.
func (r *ReleaseScheduler) SetTiming(timing ReleaseTiming) {
	r.mu.Lock()
	r.timing = timing
	r.mu.Unlock()
}

func (r *ReleaseScheduler) Timing() ReleaseTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timing
}

// Schedule releases ks in the background. The returned channel is closed
// when the last pass has been issued; it is already closed for an empty set.
func (r *ReleaseScheduler) Schedule(ks []keys.Key) <-chan struct{} {
	done := make(chan struct{})
	if len(ks) == 0 {
		close(done)
		return done
	}

	owned := append([]keys.Key(nil), ks...)
	timing := r.Timing()
	passes := timing.Passes
	if passes < 1 {
		passes = 1
	}

	r.log.Debug().Strs("keys", codes(owned)).Int("passes", passes).Msg("scheduling latched key release")

	go func() {
		defer close(done)
		<-r.clock.After(timing.InitialDelay)
		for pass := 0; pass < passes; pass++ {
			if pass > 0 {
				<-r.clock.After(timing.Interval)
			}
			for _, k := range owned {
				if err := r.injector.InjectKey(k, true); err != nil {
					r.log.Debug().Err(err).Str("key", k.Code()).Int("pass", pass).Msg("release injection failed")
				}
			}
		}
	}()
	return done
}

func codes(ks []keys.Key) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.Code()
	}
	return out
}
