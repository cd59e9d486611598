// Package main hosts the relcut CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into changelog
// inspection, workflow linting, publish pipeline runs, history queries, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// That separation keeps the CLI declarative while the heavy lifting lives in
// reusable release components.
package main
