package regscan

import (
	"fmt"
	"sync"
)

type cacheKey struct {
	pattern string
	opt     Options
}

var (
	registryMu sync.RWMutex
	registry   = map[cacheKey]*Scanner{}
)

// Register installs a precompiled scanner for (pattern, opt): later calls
// to Compile and MustCompile with the same arguments return it without
// parsing. saved is the output of Save. It is meant for the init functions
// of code generated by "regscan gen".
func Register(pattern string, opt Options, saved []byte) error {
	s, err := LoadScanner(saved)
	if err != nil {
		return fmt.Errorf("register %s: %w", quote(pattern), err)
	}
	registryMu.Lock()
	registry[cacheKey{pattern, opt}] = s
	registryMu.Unlock()
	return nil
}

// MustRegister is like Register but panics on a malformed buffer.
func MustRegister(pattern string, opt Options, saved []byte) {
	if err := Register(pattern, opt, saved); err != nil {
		panic("regscan: " + err.Error())
	}
}

func registeredScanner(pattern string, opt Options) *Scanner {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[cacheKey{pattern, opt}]
}
