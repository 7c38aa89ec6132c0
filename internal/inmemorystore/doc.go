// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. A new Store is created for every run
// and dropped when the run's summary has been produced.
package inmemorystore
