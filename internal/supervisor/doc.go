// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

/*
Package supervisor provides suture-based process supervision for Vigil.

The package builds a small supervision tree around the two long-running
parts of the application: the monitoring engine's background sweep and
the HTTP API server. A crash in either one is restarted in isolation
instead of taking the whole process down.

# Architecture

The tree has a root supervisor with two child supervisors:

	vigil (root)
	├── monitor-layer
	│   └── monitor engine sweep
	└── api-layer
	    └── HTTP server

Each layer restarts its own services with the configured backoff. The
root only restarts a layer when the layer supervisor itself gives up,
so a flapping HTTP listener cannot interrupt event expiry.

# Failure Handling

Restart behavior follows suture's failure accounting: FailureThreshold
failures within the decay window put the layer into FailureBackoff
before further restart attempts. Services signal a clean stop by
returning ctx.Err() from Serve.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddMonitorService(services.NewMonitorService(engine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

# See Also

  - internal/supervisor/services: suture.Service wrappers for Vigil components
  - github.com/thejerf/suture/v4: the supervision library
  - github.com/thejerf/sutureslog: slog adapter for supervision events
*/
package supervisor
