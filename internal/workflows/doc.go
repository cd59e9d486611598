// Package workflows models GitHub Actions workflow documents and checks
// their internal consistency: triggers present, job dependency edges that
// resolve and stay acyclic, and steps that are well formed. It also gathers
// the secrets a workflow expects so publish can confirm the pipeline's
// requirements before shipping a release.
package workflows
