// Package provision turns Lightning and Cashu payments into API credentials
// with tracked balances. The root package exposes a facade that wires the
// workflow orchestrator into command and query handlers, plus the embedded
// SQL migrations for the session and activity stores.
package provision
