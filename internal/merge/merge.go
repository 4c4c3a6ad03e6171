// Package merge combines independently encoded stores into one store.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/store"
	"github.com/sirupsen/logrus"
)

const defaultBatchSize = 1000

// ErrSameStore is returned when a store is merged into itself.
var ErrSameStore = errors.New("cannot merge a store into itself")

// Merger copies auxiliary stores into a main store, shifting their node row ids past
// the main store's current maximum so no two merged trees collide.
type Merger struct {
	batchSize int
}

type Option func(*Merger)

// WithBatchSize sets how many rows are read from an auxiliary store at once.
func WithBatchSize(size int) Option {
	return func(m *Merger) {
		if size > 0 {
			m.batchSize = size
		}
	}
}

func New(opts ...Option) *Merger {
	m := &Merger{batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Part describes the merge of one auxiliary store.
type Part struct {
	Offset      int64
	Nodes       int
	Identifiers int
	Works       int
	Variants    int
}

// Result lists the merged parts in merge order.
type Result struct {
	Parts []Part
}

// Nodes returns the number of node rows copied.
func (r *Result) Nodes() int {
	total := 0
	for _, p := range r.Parts {
		total += p.Nodes
	}
	return total
}

// Merge copies every auxiliary store into main, one at a time. Each auxiliary store lands
// completely or not at all; on error the stores merged before it stay merged.
func (m *Merger) Merge(ctx context.Context, main store.Store, aux ...store.Store) (*Result, error) {
	res := &Result{}
	for i, a := range aux {
		if a == main {
			return res, ErrSameStore
		}

		part, err := m.mergeOne(ctx, main, a)
		if err != nil {
			return res, fmt.Errorf("merge auxiliary store %d: %w", i, err)
		}
		res.Parts = append(res.Parts, *part)

		logrus.Infof("merged auxiliary store %d: %d nodes at offset %d, %d identifiers",
			i, part.Nodes, part.Offset, part.Identifiers)
	}

	return res, nil
}

// mergeOne runs under the main store's exclusive write lock so the offset read and the
// copies that depend on it cannot interleave with another merge.
func (m *Merger) mergeOne(ctx context.Context, main, aux store.Store) (*Part, error) {
	part := &Part{}

	err := main.Exclusive(ctx, func(tx store.Store) error {
		*part = Part{}

		offset, err := tx.MaxNodeRowID(ctx)
		if err != nil {
			return err
		}
		part.Offset = offset

		if part.Nodes, err = m.copyNodes(ctx, tx, aux, offset); err != nil {
			return fmt.Errorf("copy nodes: %w", err)
		}

		if part.Identifiers, err = m.copyNodeIDs(ctx, tx, aux, offset); err != nil {
			return fmt.Errorf("copy identifiers: %w", err)
		}

		if part.Works, part.Variants, err = copyCatalog(ctx, tx, aux); err != nil {
			return fmt.Errorf("copy catalog: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return part, nil
}

func (m *Merger) copyNodes(ctx context.Context, tx, aux store.Store, offset int64) (int, error) {
	var after int64
	copied := 0
	for {
		nodes, err := aux.ListNodes(ctx, after, m.batchSize)
		if err != nil {
			return copied, err
		}
		if len(nodes) == 0 {
			return copied, nil
		}

		moved := make([]*model.Node, 0, len(nodes))
		for _, node := range nodes {
			moved = append(moved, node.Offset(offset))
		}
		if err := tx.CopyNodes(ctx, moved); err != nil {
			return copied, err
		}

		copied += len(nodes)
		after = nodes[len(nodes)-1].RowID
	}
}

func (m *Merger) copyNodeIDs(ctx context.Context, tx, aux store.Store, offset int64) (int, error) {
	var after int64
	copied := 0
	for {
		ids, err := aux.ListNodeIDs(ctx, after, m.batchSize)
		if err != nil {
			return copied, err
		}
		if len(ids) == 0 {
			return copied, nil
		}

		moved := make([]*model.NodeID, 0, len(ids))
		for _, id := range ids {
			moved = append(moved, &model.NodeID{ID: id.ID, NodeRowID: id.NodeRowID + offset})
		}
		if err := tx.CopyNodeIDs(ctx, moved); err != nil {
			return copied, err
		}

		copied += len(ids)
		after = ids[len(ids)-1].RowID
	}
}

// copyCatalog copies works missing from the main store and every variant.
// Variants are re-pointed at the main store's work row by symbolic work id.
func copyCatalog(ctx context.Context, tx, aux store.Store) (int, int, error) {
	works, err := aux.ListWorks(ctx)
	if err != nil {
		return 0, 0, err
	}

	copiedWorks := 0
	for _, work := range works {
		_, err := tx.GetWork(ctx, work.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrWorkNotFound) {
			return 0, 0, err
		}

		if _, err := tx.InsertWork(ctx, &model.Work{ID: work.ID, Title: work.Title}); err != nil {
			return 0, 0, err
		}
		copiedWorks++
	}

	variants, err := aux.ListVariants(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, variant := range variants {
		_, err := tx.InsertVariant(ctx, &model.Variant{
			ID:       variant.ID,
			Title:    variant.Title,
			Language: variant.Language,
			Version:  variant.Version,
			WorkID:   variant.WorkID,
		})
		if err != nil {
			return 0, 0, err
		}
	}

	return copiedWorks, len(variants), nil
}
