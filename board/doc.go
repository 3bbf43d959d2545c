// Package board implements the live topic cache: the latest table of rows
// per topic, together with the column schema derived from the same update.
//
// The cache is written by exactly one producer (the ingestion pipeline) and
// read by arbitrarily many consumers. A single RWMutex guards the store;
// payload shaping and schema resolution happen before the lock is taken, so
// nothing blocks on I/O while holding it. Snapshot returns deep copies, so a
// returned snapshot is immune to later cache mutations.
//
// The cache holds only the latest row set per topic. Entries are created on
// first sight of a topic and removed only by Reset; there is no history and
// no per-topic eviction, so memory is bounded by the number of distinct
// topics times their current table size.
package board
