// Package notify delivers release notifications to a Discord webhook.
//
// When DISCORD_WEBHOOK is unset a no-op implementation is returned so the
// pipeline never has to branch on notification availability.
package notify
