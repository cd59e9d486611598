// Package release drives the publish pipeline: verify the tag against the
// changelog and CI workflows, build and upload the package, create the GitHub
// release with the extracted notes, and deliver the Discord notification.
// Every transition is persisted to the history store, and a file lock keeps
// publishes single-flight per state directory.
package release
