// Package services contains the core application services implementing
// the driving ports. Services depend only on the domain and the driven
// ports; adapters are injected at wire-up.
//
//   - SyncOrchestrator runs a full sync pass for one user.
//   - ConnectService manages the OAuth integration lifecycle.
//   - Scheduler triggers periodic background syncs.
package services
