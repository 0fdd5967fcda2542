// Package storage persists the set of seen news titles and the registered
// recipients. Both sets are append-only; the title uniqueness constraint is
// what makes pipeline passes idempotent.
package storage
