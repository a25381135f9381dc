// Package firerest provides a SyncStore backed by the Firestore REST
// API, authenticated with a caller-supplied bearer token rather than
// server credentials. It suits deployments where the storage layer is
// reached with the end user's own OAuth token and security rules do
// the authorisation.
//
// Wire values are modelled as an explicit tagged union (Value) with
// hand-written JSON encode/decode, never reflection.
package firerest
