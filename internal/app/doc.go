// Package app contains the core application logic. It wires the definition
// and effect registries, rune assignment, the effects file, and the optional
// admin server and replica link into one lifecycle, decoupled from any
// specific entrypoint like a CLI.
package app
