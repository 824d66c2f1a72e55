// Package archive exports stats ledgers for use outside svante.
//
// An Archive is a SQLite database holding the runs and stats of any number
// of namespaces. Exports are upserts: re-exporting a ledger replaces the
// stats and runs it contains and leaves other namespaces untouched. Every
// export is also logged in the exports table under a UUIDv7, so export ids
// sort by time.
//
// WriteTextfile renders a snapshot in the Prometheus text exposition format
// for the node_exporter textfile collector.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package archive
