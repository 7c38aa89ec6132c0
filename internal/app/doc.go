// Package app contains the core application logic. It wires the workflow
// catalog, the job registry, the layer store and the orchestrator together
// from a Config, and exposes the run, worker and enqueue entry points used by
// the CLI.
package app
