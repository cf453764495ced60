package input

import (
	"os"
	"strings"
	"sync"
)

// ProcessFocus answers whether the foreground window belongs to one of the
// configured gameplay executables and not to this process.
type ProcessFocus struct {
	self uint32

	mu      sync.RWMutex
	targets map[string]struct{}
}

func NewProcessFocus(targets []string) *ProcessFocus {
	f := &ProcessFocus{self: uint32(os.Getpid())}
	f.SetTargets(targets)
	return f
}

// SetTargets replaces the executable names. Matching ignores case and any
// directory part.
func (f *ProcessFocus) SetTargets(targets []string) {
	m := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if t = normalizeExe(t); t != "" {
			m[t] = struct{}{}
		}
	}
	f.mu.Lock()
	f.targets = m
	f.mu.Unlock()
}

func (f *ProcessFocus) ShouldIntercept() bool {
	pid, path, ok := foregroundProcess()
	if !ok {
		return false
	}
	return f.matches(pid, path)
}

func (f *ProcessFocus) matches(pid uint32, path string) bool {
	if pid == f.self {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.targets[normalizeExe(path)]
	return ok
}

func normalizeExe(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}
