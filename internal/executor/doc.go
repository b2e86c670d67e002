// Package executor provides the bounded worker pool used by the two
// processing phases.
//
// The pool is deliberately simple: a prefilled index queue, a fixed number
// of workers, and an index-addressed result slice. Output order always
// equals input order, and the first item failure aborts the whole run.
package executor
