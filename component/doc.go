// Package component defines the lifecycle contract shared by the board's
// long-running parts (ingestion pipeline, notifier hub, HTTP server) and a
// Manager that starts them in order and stops them in reverse.
//
// Components follow the unified lifecycle pattern:
//
//	Initialize() error                // setup only, no I/O
//	Start(ctx context.Context) error  // begin work, context passed through
//	Stop(timeout time.Duration) error // graceful shutdown with deadline
package component
