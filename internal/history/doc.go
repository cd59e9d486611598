// Package history persists release publish runs in SQLite.
//
// Every `relcut publish` creates a run that moves through the status machine
// (pending, building, built, publishing, published, notifying, notified or
// failed) with each transition written back to the store. The store is the
// source of truth for dedup decisions and for the history CLI commands.
package history
