// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SyncStore: Integration and event record persistence. Three real
//     backends (sqlite for the trusted local session, firestore for the
//     privileged server, firerest for token-only runtimes) plus a memory
//     backend used in tests.
//   - CalendarProvider: The external calendar API - token grants,
//     calendar list, paginated/incremental event fetches.
//   - ConfigStore: Application configuration.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
