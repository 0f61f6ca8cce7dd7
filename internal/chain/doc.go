// Package chain implements ordered collections stored as chains of rows.
//
// Each row carries a group key (a playlist's parent, an entity's list) and the id of
// its successor within the group, with 0 marking the end of the chain. The store
// enforces that no two rows of a group share a successor, so relinking has to be
// ordered carefully.
//
// A [Collection] loads the rows of one table, applies mutations in memory
// (Append, Remove, RemoveAll, Reorder, MoveTo, Dissolve) and then produces a [Plan]:
// the rows to detach, delete, insert and relink. [Plan.Apply] issues those writes in
// an order that never produces a duplicate (group, next) pair:
//
//  1. every existing row whose link changes is detached to a distinct negative sentinel
//  2. removed rows are deleted
//  3. new rows are inserted with their final links
//  4. detached rows receive their final links
//
// Callers run Apply inside a single transaction so the sentinel state is never visible.
package chain
