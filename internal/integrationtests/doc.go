// Package integration_tests runs the built-in workflows end to end through
// the application, with recorded jobs and an in-memory layer store standing
// in for the compute service and the database.
package integration_tests
