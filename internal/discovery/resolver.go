package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/client"
)

// Locator finds the current base URL of a named service.
type Locator interface {
	ServiceURL(serviceName string) (string, error)
}

// Target binds a logical service name to the URL used when lookup fails.
type Target struct {
	Name     string
	Fallback string
}

// Resolver keeps one base URL per service, refreshed from a Locator.
// With a nil Locator every service stays on its fallback URL.
type Resolver struct {
	locator Locator
	targets []Target
	logger  *zap.Logger

	mu   sync.RWMutex
	urls map[string]string
}

func NewResolver(locator Locator, targets []Target, logger *zap.Logger) *Resolver {
	r := &Resolver{
		locator: locator,
		targets: targets,
		logger:  logger,
		urls:    make(map[string]string, len(targets)),
	}
	for _, t := range targets {
		r.urls[t.Name] = t.Fallback
	}
	r.Refresh()
	return r
}

// Refresh resolves every target once.
func (r *Resolver) Refresh() {
	if r.locator == nil {
		return
	}
	for _, t := range r.targets {
		url, err := r.locator.ServiceURL(t.Name)
		if err != nil {
			r.logger.Warn("Service not found in Consul, using fallback",
				zap.String("service", t.Name),
				zap.String("fallback", t.Fallback),
				zap.Error(err),
			)
			url = t.Fallback
		}
		r.set(t.Name, url)
	}
}

// Run refreshes on every tick until ctx is done.
func (r *Resolver) Run(ctx context.Context, interval time.Duration) {
	if r.locator == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

func (r *Resolver) set(name, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.urls[name] != url {
		r.logger.Info("Updated route", zap.String("service", name), zap.String("url", url))
	}
	r.urls[name] = url
}

// URL returns the current base URL of a service, empty when unknown.
func (r *Resolver) URL(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.urls[name]
}

// Snapshot copies the current routing table.
func (r *Resolver) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.urls))
	for name, url := range r.urls {
		out[name] = url
	}
	return out
}

// Endpoint adapts one service of the resolver to client.Endpoint.
func (r *Resolver) Endpoint(name string) client.Endpoint {
	return endpoint{resolver: r, name: name}
}

type endpoint struct {
	resolver *Resolver
	name     string
}

func (e endpoint) BaseURL() string { return e.resolver.URL(e.name) }
