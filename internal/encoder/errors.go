package encoder

import "errors"

var (
	// ErrPartialEncoding is returned when the traversal stopped part way. The store must be discarded.
	ErrPartialEncoding = errors.New("partial encoding")
	// ErrNotDocument is returned when the tree root is not a document node.
	ErrNotDocument = errors.New("tree root is not a document")
)
