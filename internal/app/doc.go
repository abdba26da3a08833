// Package app contains the core application logic. It defines the main App
// struct, its configuration, and one method per command (build, deploy,
// index, watch, serve, profiles), decoupled from the CLI that drives them.
package app
