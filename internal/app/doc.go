// Package app provides the orchestration layer for the cuemon monitor.
//
// # Overview
//
// This package wires together configuration, persisted UI state, the API
// client, the job table store and its background workers, and the UI. It is
// the composition root where all dependencies are initialized and connected.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Load configuration (NEXT_PUBLIC_URL plus the optional TOML file)
//  2. Open the UI state backend (TOML file or Redis)
//  3. Create the API client, notifier, fetchers and action dispatcher
//  4. Restore the job table from storage and subscribe the persistence,
//     sync and autoload observers
//  5. Record the visit and run one refresh so the table starts populated
//  6. Launch the background poller
//  7. Start the TUI and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read config + environment
//	       ├─────> openStorage()         File or Redis UI state
//	       ├─────> jobtable.Restore()    Rehydrate the table
//	       ├─────> StartPoller()         Launch background refreshes
//	       └─────> ui.Run()              Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> Syncer.Tick()   refresh tracked ids│
//	│  ├─> Autoloader.Run() when enabled      │
//	│  └─> health.Tracker.Record()            │
//	│      └─> UI reads the store and tracker │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller refreshes every poll_seconds (default 5). While refreshes keep
// failing the wait doubles per consecutive failure, capped at 30 seconds,
// and the UI shows the API as offline after two failures in a row.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Missing required environment variables or an invalid config file
//   - The configured UI state backend cannot be opened
//   - The public URL cannot be parsed
//
// Recoverable errors (logged or toasted, polling continues):
//   - Refresh and lookup failures
//   - Visit counter failures
//   - Failed actions, which surface as toasts in the UI
package app
