package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/emrgen/docseed/internal/doctree"
	"github.com/emrgen/docseed/internal/encoder"
	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/store"
	"github.com/emrgen/docseed/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenIDs fails while reading identifier rows, after its nodes were copied.
type brokenIDs struct {
	store.Store
}

func (b brokenIDs) ListNodeIDs(ctx context.Context, after int64, limit int) ([]*model.NodeID, error) {
	return nil, errors.New("database disk image is malformed")
}

func encoded(t *testing.T, name, variantID string, root *doctree.Block) *store.GormStore {
	t.Helper()

	s := tester.StoreWithWork(t, name)
	_, err := encoder.New().Encode(context.TODO(), s, root, encoder.VariantInfo{
		WorkID:    tester.TestWorkID,
		VariantID: variantID,
		Version:   "1.0.0",
	})
	require.NoError(t, err)

	return s
}

func TestMerger_OffsetsAuxiliaryRows(t *testing.T) {
	ctx := context.TODO()
	main := encoded(t, "main", "en", tester.Doc("Main", "en",
		tester.Para("m1"), tester.Para("m2"), tester.Para("m3"), tester.Para("m4")))
	aux := encoded(t, "aux", "fr", tester.Doc("Aux", "fr",
		tester.WithID(tester.Para("a1 [[ref]]"), "a1"), tester.Para("a2")))

	last, err := main.MaxNodeRowID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), last)

	res, err := New().Merge(ctx, main, aux)
	require.NoError(t, err)
	require.Len(t, res.Parts, 1)
	assert.Equal(t, int64(5), res.Parts[0].Offset)
	assert.Equal(t, 3, res.Nodes())

	nodes := tester.AllNodes(t, main)
	require.Len(t, nodes, 8)

	var auxRows []int64
	for _, n := range nodes[5:] {
		auxRows = append(auxRows, n.RowID)
	}
	assert.Equal(t, []int64{6, 7, 8}, auxRows)

	assert.Nil(t, nodes[5].ParentRowID)
	assert.Equal(t, "document", nodes[5].Kind)
	assert.Equal(t, int64(6), *nodes[6].ParentRowID)
	assert.Equal(t, int64(6), *nodes[7].ParentRowID)
	assert.Equal(t, "a1 [[ref]]", *nodes[6].Content)

	for _, id := range []string{"a1", "ref"} {
		row, err := main.ResolveIdentifier(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(7), row, id)
	}

	works, err := main.ListWorks(ctx)
	require.NoError(t, err)
	assert.Len(t, works, 1)

	variants, err := main.ListVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "fr", variants[1].ID)
	assert.Equal(t, tester.TestWorkID, variants[1].WorkID)
}

func TestMerger_OrderIndependent(t *testing.T) {
	ctx := context.TODO()
	treeA := func() *doctree.Block {
		return tester.Doc("A", "en", tester.Section("A1", tester.WithID(tester.Para("a [[x]]"), "pa")), tester.Para("a2"))
	}
	treeB := func() *doctree.Block {
		return tester.Doc("B", "de", tester.Block("preamble", tester.WithID(tester.Para("b"), "pb")), tester.List("ulist", "i", "j"))
	}

	first := tester.Store(t, "ab")
	_, err := New().Merge(ctx, first, encoded(t, "a1", "a", treeA()), encoded(t, "b1", "b", treeB()))
	require.NoError(t, err)

	second := tester.Store(t, "ba")
	_, err = New().Merge(ctx, second, encoded(t, "b2", "b", treeB()), encoded(t, "a2", "a", treeA()))
	require.NoError(t, err)

	assert.Equal(t, forest(t, first), forest(t, second))
	assert.Equal(t, identifierTargets(t, first), identifierTargets(t, second))
}

func TestMerger_BatchesAcrossPages(t *testing.T) {
	ctx := context.TODO()
	paras := make([]*doctree.Block, 0, 25)
	for i := 0; i < 25; i++ {
		paras = append(paras, tester.WithID(tester.Para("p"), "id"))
	}

	main := tester.Store(t, "main")
	aux := encoded(t, "aux", "en", tester.Doc("Paged", "en", paras...))

	res, err := New(WithBatchSize(4)).Merge(ctx, main, aux)
	require.NoError(t, err)
	assert.Equal(t, 26, res.Parts[0].Nodes)
	assert.Equal(t, 25, res.Parts[0].Identifiers)
	assert.Len(t, tester.AllNodes(t, main), 26)
}

func TestMerger_AtomicPerAuxiliary(t *testing.T) {
	ctx := context.TODO()
	main := encoded(t, "main", "en", tester.Doc("Main", "en", tester.Para("m")))
	good := encoded(t, "good", "de", tester.Doc("Good", "de", tester.Para("g")))
	bad := encoded(t, "bad", "fr", tester.Doc("Bad", "fr", tester.Para("b")))

	res, err := New().Merge(ctx, main, good, brokenIDs{Store: bad})
	require.Error(t, err)
	assert.Len(t, res.Parts, 1)

	stats, err := main.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Nodes)
	assert.Equal(t, int64(2), stats.Variants)

	// the failed store can be merged again once readable
	_, err = New().Merge(ctx, main, bad)
	require.NoError(t, err)
	assert.Len(t, tester.AllNodes(t, main), 6)
}

func TestMerger_EmptyAuxiliary(t *testing.T) {
	ctx := context.TODO()
	main := encoded(t, "main", "en", tester.Doc("Main", "en", tester.Para("m")))

	res, err := New().Merge(ctx, main, tester.Store(t, "empty"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Nodes())
	assert.Len(t, tester.AllNodes(t, main), 2)
}

func TestMerger_ConcurrentMergesSerialize(t *testing.T) {
	ctx := context.TODO()
	main := tester.Store(t, "main")

	const parts = 6
	aux := make([]store.Store, 0, parts)
	for i := 0; i < parts; i++ {
		id := fmt.Sprintf("v%d", i)
		aux = append(aux, encoded(t, id, id, tester.Doc(id, "en", tester.Para(id+"-a"), tester.Para(id+"-b"))))
	}

	var wg sync.WaitGroup
	errs := make(chan error, parts)
	for _, a := range aux {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := New().Merge(ctx, main, a)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	nodes := tester.AllNodes(t, main)
	require.Len(t, nodes, parts*3)

	seen := make(map[int64]bool, len(nodes))
	for i, n := range nodes {
		assert.Equal(t, int64(i+1), n.RowID)
		assert.False(t, seen[n.RowID])
		seen[n.RowID] = true
	}

	// each auxiliary tree landed as one contiguous block under its own root
	for _, n := range nodes {
		if !n.IsRoot() {
			continue
		}
		children, err := main.ListChildren(ctx, n.RowID)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, n.RowID+1, children[0].RowID)
		assert.Equal(t, n.RowID+2, children[1].RowID)
	}

	variants, err := main.ListVariants(ctx)
	require.NoError(t, err)
	assert.Len(t, variants, parts)
}

func TestMerger_SameStore(t *testing.T) {
	main := tester.Store(t, "main")

	_, err := New().Merge(context.TODO(), main, main)
	assert.ErrorIs(t, err, ErrSameStore)
}

// forest renders every root subtree with its content and sorts them.
func forest(t *testing.T, s store.Store) []string {
	var shapes []string
	for _, n := range tester.AllNodes(t, s) {
		if n.IsRoot() {
			shapes = append(shapes, subtree(t, s, n))
		}
	}
	sort.Strings(shapes)
	return shapes
}

func subtree(t *testing.T, s store.Store, n *model.Node) string {
	var sb strings.Builder
	sb.WriteString(n.Kind)
	if n.Content != nil {
		sb.WriteString("[" + *n.Content + "]")
	}
	children, err := s.ListChildren(context.TODO(), n.RowID)
	require.NoError(t, err)
	sb.WriteString("(")
	for _, child := range children {
		sb.WriteString(subtree(t, s, child) + " ")
	}
	sb.WriteString(")")
	return sb.String()
}

// identifierTargets maps every identifier to the content of the node it resolves to.
func identifierTargets(t *testing.T, s store.Store) map[string]string {
	targets := make(map[string]string)
	for _, id := range tester.AllNodeIDs(t, s) {
		node, err := s.GetNode(context.TODO(), id.NodeRowID)
		require.NoError(t, err)
		label := node.Kind
		if node.Content != nil {
			label += ":" + *node.Content
		}
		targets[id.ID] = label
	}
	return targets
}
