// Package orchestrator: stack lifecycle — up, down, and restart operations.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
)

// LifecycleManager handles up/down/restart for the documentation stack.
type LifecycleManager struct {
	docker *Client
	state  *state.DB
	log    *logger.Logger
}

// NewLifecycleManager constructs a LifecycleManager.
func NewLifecycleManager(docker *Client, db *state.DB, log *logger.Logger) *LifecycleManager {
	return &LifecycleManager{docker: docker, state: db, log: log}
}

// Up ensures all services in specs are running.
// Existing containers with the same name are skipped unless forceRecreate is true.
func (m *LifecycleManager) Up(ctx context.Context, specs []v1.ServiceSpec, forceRecreate bool) error {
	for _, spec := range specs {
		if err := m.upOne(ctx, spec, forceRecreate); err != nil {
			return fmt.Errorf("up %q: %w", spec.Name, err)
		}
	}
	return nil
}

func (m *LifecycleManager) upOne(ctx context.Context, spec v1.ServiceSpec, forceRecreate bool) error {
	existing, err := m.state.GetServiceState(spec.Name)
	if err != nil {
		return err
	}

	if existing != nil && existing.ContainerID != "" && !forceRecreate {
		info, inspectErr := m.docker.InspectContainer(ctx, existing.ContainerID)
		if inspectErr == nil && info.State.Running {
			m.log.Info("service already running, skipping", "service", spec.Name)
			return nil
		}
	}

	if existing != nil && existing.ContainerID != "" {
		_ = m.docker.StopContainer(ctx, existing.ContainerID, true)
	}

	if spec.Labels == nil {
		spec.Labels = map[string]string{}
	}
	spec.Labels[LabelService] = spec.Name
	spec.Labels["autodoc.started"] = time.Now().UTC().Format(time.RFC3339)

	id, err := m.docker.RunContainer(ctx, spec, spec.Name)
	if err != nil {
		return err
	}

	return m.state.PutServiceState(v1.ServiceState{
		Name:        spec.Name,
		ContainerID: id,
		Image:       spec.Image,
		Status:      v1.StatusUnknown,
		Ports:       spec.Ports,
		StartedAt:   time.Now().UTC(),
	})
}

// Down stops and removes the specified services (or all if names is empty).
// With removeVolumes, Docker volumes labelled for the stack are removed too;
// bind-mounted data directories are left to the clean command.
func (m *LifecycleManager) Down(ctx context.Context, names []string, removeVolumes bool) error {
	states, err := m.state.ListServiceStates()
	if err != nil {
		return err
	}

	nameSet := map[string]bool{}
	for _, n := range names {
		nameSet[n] = true
	}

	for _, s := range states {
		if len(names) > 0 && !nameSet[s.Name] {
			continue
		}
		m.log.Info("stopping service", "service", s.Name)
		if err := m.docker.StopContainer(ctx, s.ContainerID, true); err != nil {
			m.log.Warn("stop failed", "service", s.Name, "err", err)
		}
		if err := m.state.DeleteServiceState(s.Name); err != nil {
			m.log.Warn("state cleanup failed", "service", s.Name, "err", err)
		}
	}

	if removeVolumes {
		vols, err := m.docker.ListVolumes(ctx)
		if err != nil {
			return fmt.Errorf("list volumes: %w", err)
		}
		for _, vol := range vols {
			if vol.Labels[LabelService] == "" {
				continue
			}
			if err := m.docker.RemoveVolume(ctx, vol.Name); err != nil {
				m.log.Warn("volume remove failed", "volume", vol.Name, "err", err)
			}
		}
	}
	return nil
}

// Restart performs Down followed by Up for the whole stack.
func (m *LifecycleManager) Restart(ctx context.Context, specs []v1.ServiceSpec) error {
	if err := m.Down(ctx, nil, false); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	return m.Up(ctx, specs, true)
}
