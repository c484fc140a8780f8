// Package api defines the contracts shared by the hioload-pump packages:
// the protocol engine and its event queue, the readiness facility, sockets,
// executors and the structured error taxonomy.
package api
