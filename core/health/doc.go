// Package health provides HTTP handlers for process probes.
//
// Handlers:
//   - Liveness: process is running (no checks)
//   - Readiness: every check passes
//
// Usage:
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, func(context.Context) error {
//		if coordinator.Draining() {
//			return errDraining
//		}
//		return nil
//	}))
package health
