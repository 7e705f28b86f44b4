// Package cmd implements the tabfetch CLI commands using Cobra.
//
// Available commands:
//   - send: Submit one request from the active tab or the background
//   - watch: Resubmit a YAML form each time it is saved
//   - tab: Open, list, switch and close tabs of the browser session
//   - cookie: Seed and inspect the page and background cookie stores
//   - fields: Print the last-used form fields
//   - init: Create a starter form and config file
//   - version: Show tabfetch version information
//
// Exit codes distinguish failed exchanges, bad input, bad configuration,
// page errors, timeouts and usage errors; see exitcodes.go.
package cmd
