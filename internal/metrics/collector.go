// Package metrics polls Docker container stats for the monitor and ui views.
package metrics

import (
	"context"
	"sync"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/orchestrator"
)

// PollInterval is how often stats are collected.
const PollInterval = 2 * time.Second

// Collector polls stats for all managed containers and keeps the latest
// sample per service.
type Collector struct {
	docker *orchestrator.Client
	log    *logger.Logger

	mu          sync.RWMutex
	services    map[string]v1.ServiceMetrics
	collectedAt time.Time
}

// NewCollector constructs a Collector.
func NewCollector(docker *orchestrator.Client, log *logger.Logger) *Collector {
	return &Collector{
		docker:   docker,
		log:      log,
		services: make(map[string]v1.ServiceMetrics),
	}
}

// Run starts the collection loop. Blocks until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect performs a single stats pass over the managed containers.
func (c *Collector) Collect(ctx context.Context) {
	containers, err := c.docker.ListManaged(ctx, "")
	if err != nil {
		c.log.Debug("metrics collect: list containers", "err", err)
		return
	}

	fresh := make(map[string]v1.ServiceMetrics, len(containers))
	for _, ctr := range containers {
		serviceName := ctr.Labels[orchestrator.LabelService]
		if serviceName == "" {
			continue
		}

		stats, err := c.docker.ContainerStats(ctx, ctr.ID)
		if err != nil {
			c.log.Debug("metrics collect: stats", "service", serviceName, "err", err)
			continue
		}
		fresh[serviceName] = stats
	}

	c.mu.Lock()
	c.services = fresh
	c.collectedAt = time.Now().UTC()
	c.mu.Unlock()
}

// AllMetrics returns the latest combined snapshot.
func (c *Collector) AllMetrics() v1.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := v1.Metrics{
		CollectedAt: c.collectedAt,
		Services:    make(map[string]v1.ServiceMetrics, len(c.services)),
	}
	for name, svc := range c.services {
		m.Services[name] = svc
	}
	return m
}
