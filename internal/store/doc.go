// Package store defines persistence contracts for harvested legal acts and
// run bookkeeping. Implementations live in the postgres and memory
// subpackages; this package must not import database drivers or concrete
// clients.
package store
