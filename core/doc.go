// Package core contains the canonical provisioning domain: credentials,
// wallet snapshots, invoices, refund receipts, the error taxonomy, and the
// contracts the client, poller, and workflow packages are built against.
// Adapters and stores depend on this package; core depends on nothing above it.
package core
