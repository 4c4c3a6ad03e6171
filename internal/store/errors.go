package store

import "errors"

var (
	// ErrStoreInit is returned when the backing store cannot be created or opened.
	ErrStoreInit = errors.New("store init failed")
	// ErrDanglingForeignKey is returned when a variant references a work that is not stored.
	ErrDanglingForeignKey = errors.New("dangling foreign key")
	// ErrAlreadyFinalized is returned when Finalize runs twice on the same store.
	ErrAlreadyFinalized = errors.New("store already finalized")
	// ErrStoreClosed is returned when a closed store is used.
	ErrStoreClosed = errors.New("store closed")
	// ErrIdentifierNotFound is returned when no node carries the requested identifier.
	ErrIdentifierNotFound = errors.New("identifier not found")
	// ErrNodeNotFound is returned when no node has the requested row id.
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateRoot is returned when a second parentless node is inserted.
	ErrDuplicateRoot = errors.New("store already has a root node")
	// ErrWorkNotFound is returned when no work has the requested id.
	ErrWorkNotFound = errors.New("work not found")
)
