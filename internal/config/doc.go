// Package config loads and validates relcut's TOML configuration.
//
// Configuration resolves from, in order: a path passed on the command line, a
// relcut.toml in the working directory, then ~/.config/relcut/config.toml.
// Missing files fall back to defaults so read-only commands work out of the
// box. Secrets (GITHUB_TOKEN, PYPI_TOKEN, DISCORD_WEBHOOK) are resolved from
// the environment during normalization and are never written to or read from
// the config file.
package config
