package store

import (
	"context"

	"github.com/emrgen/docseed/internal/model"
)

type Store interface {
	NodeStore
	CatalogStore
	// Transaction runs f inside a single database transaction.
	Transaction(ctx context.Context, f func(tx Store) error) error
	// Exclusive runs f inside a transaction while holding the store's write lock.
	// Calls must not be nested.
	Exclusive(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type NodeStore interface {
	// InsertNode appends a node row and returns its assigned row id.
	InsertNode(ctx context.Context, node *model.Node) (int64, error)
	// InsertIdentifier binds id to the node with the given row id.
	InsertIdentifier(ctx context.Context, id string, nodeRowID int64) error
	// CopyNodes inserts nodes keeping their row ids.
	CopyNodes(ctx context.Context, nodes []*model.Node) error
	// CopyNodeIDs inserts identifier rows; their own row ids are reassigned.
	CopyNodeIDs(ctx context.Context, ids []*model.NodeID) error
	// MaxNodeRowID returns the largest node row id, 0 for an empty store.
	MaxNodeRowID(ctx context.Context) (int64, error)
	// GetNode retrieves a node by row id.
	GetNode(ctx context.Context, rowID int64) (*model.Node, error)
	// ListNodes returns up to limit nodes with a row id greater than after, in row id order.
	ListNodes(ctx context.Context, after int64, limit int) ([]*model.Node, error)
	// ListChildren returns the direct children of a node in document order.
	ListChildren(ctx context.Context, parentRowID int64) ([]*model.Node, error)
	// ListNodeIDs returns up to limit identifier rows with a row id greater than after.
	ListNodeIDs(ctx context.Context, after int64, limit int) ([]*model.NodeID, error)
	// ResolveIdentifier returns the row id of the node registered first under id.
	ResolveIdentifier(ctx context.Context, id string) (int64, error)
}

type CatalogStore interface {
	// InsertWork creates a work row.
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
	// GetWork retrieves a work by its symbolic id.
	GetWork(ctx context.Context, id string) (*model.Work, error)
	// ListWorks retrieves every work.
	ListWorks(ctx context.Context) ([]*model.Work, error)
	// InsertVariant creates a variant row pointing at the work named by variant.WorkID.
	InsertVariant(ctx context.Context, variant *model.Variant) (int64, error)
	// ListVariants retrieves every variant with its work loaded.
	ListVariants(ctx context.Context) ([]*model.Variant, error)
	// Stats counts the rows of every table.
	Stats(ctx context.Context) (*Stats, error)
}

// Stats summarizes the content of a store.
type Stats struct {
	Nodes       int64
	Identifiers int64
	Works       int64
	Variants    int64
	Kinds       map[string]int64
}
