package encoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/emrgen/docseed/internal/doctree"
	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/store"
	"github.com/emrgen/docseed/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInfo = VariantInfo{WorkID: tester.TestWorkID, VariantID: tester.TestVariantID, Version: "1.0.0"}

// failingStore fails the n-th node insert.
type failingStore struct {
	store.Store
	n     int
	count int
}

func (f *failingStore) InsertNode(ctx context.Context, node *model.Node) (int64, error) {
	f.count++
	if f.count == f.n {
		return 0, errors.New("disk I/O error")
	}
	return f.Store.InsertNode(ctx, node)
}

func content(n *model.Node) string {
	if n.Content == nil {
		return "<nil>"
	}
	return *n.Content
}

func TestEncoder_TwoParagraphs(t *testing.T) {
	s := tester.StoreWithWork(t, "two")
	root := tester.Doc("Greeting", "en", tester.Para("Hello"), tester.Para("World"))

	res, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)

	nodes := tester.AllNodes(t, s)
	require.Len(t, nodes, 3)
	assert.Equal(t, 3, res.Nodes)

	doc := nodes[0]
	assert.Equal(t, "document", doc.Kind)
	assert.Nil(t, doc.ParentRowID)
	assert.JSONEq(t, `{"title":"Greeting","language":"en"}`, doc.AttributeJSON())

	for i, want := range []string{"Hello", "World"} {
		para := nodes[i+1]
		assert.Equal(t, "paragraph", para.Kind)
		require.NotNil(t, para.ParentRowID)
		assert.Equal(t, doc.RowID, *para.ParentRowID)
		assert.Equal(t, want, content(para))
		assert.Nil(t, para.Attributes)
	}

	variants, err := s.ListVariants(context.TODO())
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, tester.TestVariantID, variants[0].ID)
	assert.Equal(t, tester.TestWorkID, variants[0].WorkID)
	assert.Equal(t, "Greeting", variants[0].Title)
	assert.Equal(t, "en", variants[0].Language)
	assert.Equal(t, "1.0.0", variants[0].Version)
}

func TestEncoder_References(t *testing.T) {
	s := tester.StoreWithWork(t, "refs")
	para := tester.WithID(tester.Para("as shown in [[target-1]] and [[target-2]]"), "p-1")
	root := tester.WithID(tester.Doc("Refs", "en", para), "doc")

	res, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Identifiers)

	nodes := tester.AllNodes(t, s)
	require.Len(t, nodes, 2)
	paraRow := nodes[1].RowID
	assert.Equal(t, "as shown in [[target-1]] and [[target-2]]", content(nodes[1]))

	bound := make(map[string]int64)
	for _, id := range tester.AllNodeIDs(t, s) {
		bound[id.ID] = id.NodeRowID
	}
	assert.Equal(t, map[string]int64{
		"doc":      nodes[0].RowID,
		"p-1":      paraRow,
		"target-1": paraRow,
		"target-2": paraRow,
	}, bound)
}

func TestEncoder_ContentPolicies(t *testing.T) {
	s := tester.StoreWithWork(t, "policies")

	list := tester.List("ulist", "one &amp; two", "<em>three</em>")
	list.Blocks = []*doctree.Block{tester.Para("never stored")}

	root := tester.Doc("Policies", "en",
		tester.Block("preamble", tester.Para("intro")),
		tester.Section("Chapter &#8217;1&#8217;",
			tester.Block("quote", &doctree.Block{NodeName: "verse", Text: "line &lt;br&gt; two"}),
			list,
			tester.List("olist"),
			tester.Block("open"),
		),
		tester.Block("inline_anchor"),
		tester.Block("inline_quoted"),
	)

	res, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)

	var got []string
	for _, n := range tester.AllNodes(t, s) {
		got = append(got, n.Kind+"="+content(n))
	}
	assert.Equal(t, []string{
		"document=<nil>",
		"preamble=<nil>",
		"paragraph=intro",
		"section=<nil>",
		"quote=<nil>",
		"verse=line  two",
		`ulist=["one & two","three"]`,
		"olist=[]",
		"open=<nil>",
	}, got)

	nodes := tester.AllNodes(t, s)
	assert.JSONEq(t, `{"title":"Chapter ’1’"}`, nodes[3].AttributeJSON())
	assert.Nil(t, nodes[8].Attributes)
}

func TestEncoder_StoresLiteralMarkupCharacters(t *testing.T) {
	s := tester.StoreWithWork(t, "literal")
	para := tester.Para("text")
	para.Heading = "A <b>&amp;</b> C"
	root := tester.Doc("Tom &amp; Jerry", "en",
		para,
		tester.List("ulist", "a &amp; b", "x &lt; y"),
	)

	_, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)

	nodes := tester.AllNodes(t, s)
	require.Len(t, nodes, 3)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"document attributes", nodes[0].AttributeJSON(), `{"language":"en","title":"Tom & Jerry"}`},
		{"paragraph attributes", nodes[1].AttributeJSON(), `{"title":"A & C"}`},
		{"list content", content(nodes[2]), `["a & b","x < y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
			assert.NotContains(t, tt.got, `\u00`)
		})
	}
}

func TestEncoder_UnrecognizedKindSkipsSubtree(t *testing.T) {
	s := tester.StoreWithWork(t, "unknown")
	root := tester.Doc("Unknown", "en",
		tester.Para("before"),
		tester.Block("table", tester.Para("inside table")),
		tester.Block("table"),
		tester.Block("image"),
		tester.Para("after"),
	)

	res, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Skipped)

	var texts []string
	for _, n := range tester.AllNodes(t, s)[1:] {
		texts = append(texts, content(n))
	}
	assert.Equal(t, []string{"before", "after"}, texts)
}

func TestEncoder_PreservesStructure(t *testing.T) {
	s := tester.StoreWithWork(t, "shape")
	root := tester.Doc("Shape", "en",
		tester.Block("preamble", tester.Para("p0")),
		tester.Section("One",
			tester.Para("p1"),
			tester.Section("One.One",
				tester.Para("p2"),
				tester.List("olist", "a", "b"),
				tester.Block("quote", tester.Para("p3"), tester.Para("p4")),
			),
		),
		tester.Section("Two", tester.Block("open", tester.Para("p5"))),
	)

	_, err := New().Encode(context.TODO(), s, root, testInfo)
	require.NoError(t, err)

	nodes := tester.AllNodes(t, s)
	require.Len(t, nodes, root.Count())

	assert.Equal(t, treeShape(root), storeShape(t, s, nodes[0]))

	// every parent was inserted before its children
	seen := make(map[int64]bool)
	for _, n := range nodes {
		if n.ParentRowID != nil {
			assert.True(t, seen[*n.ParentRowID], "row %d references unseen parent %d", n.RowID, *n.ParentRowID)
			assert.Less(t, *n.ParentRowID, n.RowID)
		}
		seen[n.RowID] = true
	}
}

func TestEncoder_InsertFailureIsPartial(t *testing.T) {
	s := tester.StoreWithWork(t, "failing")
	root := tester.Doc("Failing", "en", tester.Para("a"), tester.Para("b"), tester.Para("c"))

	_, err := New().Encode(context.TODO(), &failingStore{Store: s, n: 3}, root, testInfo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialEncoding)

	variants, err := s.ListVariants(context.TODO())
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestEncoder_MissingWork(t *testing.T) {
	s := tester.Store(t, "no-work")
	root := tester.Doc("Orphan", "en", tester.Para("text"))

	_, err := New().Encode(context.TODO(), s, root, testInfo)
	assert.ErrorIs(t, err, ErrPartialEncoding)
	assert.ErrorIs(t, err, store.ErrDanglingForeignKey)

	stats, err := s.Stats(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Variants)
}

func TestEncoder_RootMustBeDocument(t *testing.T) {
	s := tester.StoreWithWork(t, "not-doc")

	_, err := New().Encode(context.TODO(), s, tester.Para("lonely"), testInfo)
	assert.ErrorIs(t, err, ErrNotDocument)
	assert.Empty(t, tester.AllNodes(t, s))
}

func TestEncoder_IndependentStores(t *testing.T) {
	enc := New()

	var wg sync.WaitGroup
	stores := make([]*store.GormStore, 4)
	errs := make([]error, 4)
	for i := range stores {
		stores[i] = tester.StoreWithWork(t, fmt.Sprintf("parallel-%d", i))
	}

	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paras := make([]*doctree.Block, 0, i+1)
			for j := 0; j <= i; j++ {
				paras = append(paras, tester.Para(fmt.Sprintf("v%d-p%d", i, j)))
			}
			root := tester.Doc("Parallel", "en", tester.Section("S", paras...))
			_, errs[i] = enc.Encode(context.TODO(), stores[i], root, testInfo)
		}(i)
	}
	wg.Wait()

	for i, s := range stores {
		require.NoError(t, errs[i])
		nodes := tester.AllNodes(t, s)
		require.Len(t, nodes, i+3)
		for _, n := range nodes[2:] {
			assert.Equal(t, nodes[1].RowID, *n.ParentRowID)
			assert.True(t, strings.HasPrefix(content(n), fmt.Sprintf("v%d-", i)))
		}
	}
}

// treeShape renders the kinds of a block tree as nested parentheses.
func treeShape(b *doctree.Block) string {
	var sb strings.Builder
	sb.WriteString(b.NodeName)
	if b.Kind() == doctree.KindOrderedList || b.Kind() == doctree.KindUnorderedList {
		return sb.String()
	}
	sb.WriteString("(")
	for _, child := range b.Blocks {
		sb.WriteString(treeShape(child))
		sb.WriteString(" ")
	}
	sb.WriteString(")")
	return sb.String()
}

// storeShape renders the subtree stored under n the same way as treeShape.
func storeShape(t *testing.T, s store.Store, n *model.Node) string {
	var sb strings.Builder
	sb.WriteString(n.Kind)
	if n.Kind == "olist" || n.Kind == "ulist" {
		return sb.String()
	}
	children, err := s.ListChildren(context.TODO(), n.RowID)
	require.NoError(t, err)
	sb.WriteString("(")
	for _, child := range children {
		sb.WriteString(storeShape(t, s, child))
		sb.WriteString(" ")
	}
	sb.WriteString(")")
	return sb.String()
}
