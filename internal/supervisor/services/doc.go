// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

/*
Package services provides suture.Service wrappers for Vigil components.

Each wrapper adapts a component's native lifecycle to suture's
context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the blocking ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Monitor Engine (MonitorService):
  - Wraps the monitoring engine's RunWithContext loop
  - Keeps the blacklist and velocity sweep running under supervision

# Error Handling

Return values determine supervisor behavior:

	nil       -> service stopped cleanly, will not restart
	error     -> service crashed, supervisor will restart
	ctx.Err() -> shutdown requested, normal termination

# Service Identification

All wrappers implement fmt.Stringer; suture uses the name in its event
log ("http-server", "monitor-engine").

# See Also

  - internal/supervisor: the tree these services are added to
  - internal/monitor: the engine wrapped by MonitorService
*/
package services
