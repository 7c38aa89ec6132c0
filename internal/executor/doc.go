// Package executor runs a single workflow node: it checks the node's declared
// dependencies, invokes the job when all of them hold, and records what
// happened in the run's status table.
//
// The executor is the only writer of the status table. It never retries a
// job and never rolls back work a job already published.
package executor
