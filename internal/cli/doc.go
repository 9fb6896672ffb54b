// Package cli turns the arcanebooks command line into an app.Config. It owns
// flag parsing, usage text, and the ExitError codes returned to main.
package cli
