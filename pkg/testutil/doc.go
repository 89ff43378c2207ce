// Package testutil provides test helpers, chiefly an in-memory
// implementation of types.FS so reconciliation logic can be tested without
// touching the real filesystem.
package testutil
