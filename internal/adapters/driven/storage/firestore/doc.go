// Package firestore provides a Firestore-backed implementation of the
// SyncStore port for privileged server-side use.
//
// The adapter talks to Firestore through the generated REST service in
// google.golang.org/api/firestore/v1 with server credentials. Documents
// live under integrations/{userID}, with event records in the events
// subcollection keyed by their UID. Batched writes go through
// :batchWrite in chunks of at most driven.EventBatchLimit.
package firestore
