// Package cli constructs the ghmirror command-line interface. It wires the
// Cobra command hierarchy to the layered Viper configuration, the zap logger
// and the repository commands, and exposes Execute for the main package.
package cli
