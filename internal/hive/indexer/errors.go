package indexer

import "errors"

var (
	// ErrNoTransaction is returned when Process is called without an open transaction.
	ErrNoTransaction = errors.New("block must be processed inside a transaction")
	// ErrBlockLink is returned when a block does not extend the persisted head.
	ErrBlockLink = errors.New("block does not extend persisted head")
	// ErrForkTooDeep is returned when no common ancestor is found within the fork depth bound.
	ErrForkTooDeep = errors.New("fork too deep")
	// ErrIrreversibleRollback is returned when a rollback would pop an irreversible block.
	ErrIrreversibleRollback = errors.New("not proceeding until head is irreversible")
	// ErrNotHead is returned when a popped block is not the persisted head.
	ErrNotHead = errors.New("can only pop head block")
	// ErrParentNotFound is returned for a comment whose parent post is unknown.
	ErrParentNotFound = errors.New("parent post not found")
)
