// Package store is the relational backend: element records live as rows
// in SQLite tables, one table per schema location.
//
// # Reads
//
// A batch of plans compiles to one UNION ALL statement. Each arm packs its
// row into a JSON object column and tags it with its arm index, so tables
// with different columns share one result set and rows pair back to the
// plan that asked for them. When the union fails (a missing table or
// column in one arm) the store reruns the arms one by one, so a single
// broken table only fails its own plan.
//
// Every arm orders by the schema's id field (ORDER BY id ASC COLLATE
// BINARY) so reads are deterministic.
//
// # Writes
//
// Inserts map primary key and unique constraint violations onto
// schema.ErrDuplicate. Tables of derived-identity schemas have no key
// column, so the store checks for an identical row before inserting.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
