// Package querysql compiles translated predicates into parameterized SQLite
// statements.
//
// Every value is bound as a parameter; identifiers are double-quoted. A
// multi-table read is compiled into one UNION ALL statement whose arms all
// produce the same two columns, a discriminator naming the arm and a JSON
// object holding the row, so tables with different columns can share one
// round trip.
package querysql
