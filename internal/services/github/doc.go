// Package github wraps the subset of the GitHub REST API the publish
// pipeline needs: creating releases, looking them up by tag, and uploading
// release assets.
package github
