// Package main provides the entry point for the noteshub-ops CLI.
//
// noteshub-ops bundles the operational helpers that run next to the API:
// the tunnel runner, the keep-alive pinger and the db-status watcher.
//
// Usage:
//
//	noteshub-ops tunnel
//	noteshub-ops keepalive
//	noteshub-ops status --watch
//
// See --help for all available options.
package main

func main() {
	Execute()
}
