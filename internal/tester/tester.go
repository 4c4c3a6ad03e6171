package tester

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emrgen/docseed/internal/doctree"
	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/store"
	"github.com/stretchr/testify/require"
)

const (
	TestWorkID    = "moby-dick"
	TestVariantID = "moby-dick-en"
)

// Store opens a fresh sqlite store in the test's temp dir and closes it on cleanup.
func Store(t *testing.T, name string) *store.GormStore {
	t.Helper()

	s, err := store.Open(store.SqliteConfig(filepath.Join(t.TempDir(), name+".sqlite")))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// StoreWithWork opens a fresh store holding the test work row.
func StoreWithWork(t *testing.T, name string) *store.GormStore {
	t.Helper()

	s := Store(t, name)
	_, err := s.InsertWork(context.TODO(), &model.Work{ID: TestWorkID, Title: "Moby Dick"})
	require.NoError(t, err)

	return s
}

// AllNodes reads every node of s in row id order.
func AllNodes(t *testing.T, s store.Store) []*model.Node {
	t.Helper()

	nodes, err := s.ListNodes(context.TODO(), 0, 1_000_000)
	require.NoError(t, err)

	return nodes
}

// AllNodeIDs reads every identifier row of s in row id order.
func AllNodeIDs(t *testing.T, s store.Store) []*model.NodeID {
	t.Helper()

	ids, err := s.ListNodeIDs(context.TODO(), 0, 1_000_000)
	require.NoError(t, err)

	return ids
}

func Doc(title, lang string, blocks ...*doctree.Block) *doctree.Block {
	return &doctree.Block{
		NodeName: "document",
		Heading:  title,
		Attrs:    map[string]string{"lang": lang},
		Blocks:   blocks,
	}
}

func Section(title string, blocks ...*doctree.Block) *doctree.Block {
	return &doctree.Block{NodeName: "section", Heading: title, Blocks: blocks}
}

func Para(text string) *doctree.Block {
	return &doctree.Block{NodeName: "paragraph", Text: text}
}

func List(name string, items ...string) *doctree.Block {
	return &doctree.Block{NodeName: name, ListItems: items}
}

func Block(name string, blocks ...*doctree.Block) *doctree.Block {
	return &doctree.Block{NodeName: name, Blocks: blocks}
}

// WithID sets the anchor of b and returns it.
func WithID(b *doctree.Block, id string) *doctree.Block {
	b.Anchor = id
	return b
}
