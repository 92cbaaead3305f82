// Package orchestrator wires configuration into the fetch → normalize →
// render pipeline so commands and the preview server share one entry point.
package orchestrator
