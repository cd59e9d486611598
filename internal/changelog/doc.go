// Package changelog parses, validates, and renders the release changelog.
//
// The recognized document shape is a markdown file with optional preamble,
// an optional "## [Unreleased]" block, then one "## [version] - date" heading
// per release with "### Features" / "### Fixes" style bullet subsections.
// Release-note extraction (Notes) returns the verbatim body between a
// version's heading and the next release heading, which is what lands in the
// GitHub release and the Discord embed.
package changelog
