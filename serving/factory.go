package serving

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/mlopskit/logger"
)

// Factory creates a Deployer from configuration.
type Factory func(cfg Config, log *logger.Logger) (Deployer, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a serving platform backend.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers lists the registered backends.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Deployer for the configured provider.
func New(cfg Config, log *logger.Logger) (Deployer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := log.WithComponent("serving")

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("serving: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing deployer", logger.Fields("provider", cfg.Provider, "namespace", cfg.Namespace))
	return f(cfg, l)
}
