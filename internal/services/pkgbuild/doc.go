// Package pkgbuild shells out to the configured package build and upload
// tools (python -m build and twine by default). The upload token travels via
// the child environment, never via argv, so it cannot leak through process
// listings or error messages.
package pkgbuild
