// Package domain defines the core business entities for calsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - IntegrationRecord: Per-user provider integration state
//   - CalendarListEntry: One calendar visible to the user
//   - EventRecord: A normalised calendar event keyed by eventUid
//   - TimeRange: The bounded window for a full sync
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
