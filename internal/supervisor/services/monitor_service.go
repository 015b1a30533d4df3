// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package services

import (
	"context"
)

// MonitorEngine matches the monitoring engine's RunWithContext method.
// Keeping the dependency behind an interface lets the wrapper be tested
// without the monitor package.
//
// Satisfied by *monitor.Engine.
type MonitorEngine interface {
	// RunWithContext runs the engine's background expiry sweep until the
	// context is canceled.
	RunWithContext(ctx context.Context) error
}

// MonitorService wraps the monitoring engine as a supervised service.
// The engine's sweep loop expires stale blacklist entries and velocity
// windows; the supervisor restarts it if it ever crashes.
//
// Example usage:
//
//	engine := monitor.NewEngine(cfg, sink, dispatcherCfg)
//	svc := services.NewMonitorService(engine)
//	tree.AddMonitorService(svc)
type MonitorService struct {
	engine MonitorEngine
	name   string
}

// NewMonitorService creates a monitor engine service wrapper.
func NewMonitorService(engine MonitorEngine) *MonitorService {
	return &MonitorService{
		engine: engine,
		name:   "monitor-engine",
	}
}

// Serve implements suture.Service by delegating to RunWithContext.
// Returns ctx.Err() on normal shutdown.
func (m *MonitorService) Serve(ctx context.Context) error {
	return m.engine.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervision logs.
func (m *MonitorService) String() string {
	return m.name
}
