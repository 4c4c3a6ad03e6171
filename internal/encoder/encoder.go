// Package encoder walks a parsed document tree and writes it as rows into a store.
package encoder

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/docseed/internal/doctree"
	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/normalize"
	"github.com/emrgen/docseed/internal/store"
	"github.com/emrgen/docseed/internal/xref"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// VariantInfo identifies the variant being encoded.
type VariantInfo struct {
	WorkID    string
	VariantID string
	Version   string
}

// Result summarizes one encoding run.
type Result struct {
	Variant     *model.Variant
	Nodes       int
	Identifiers int
	Skipped     int
}

// Encoder is stateless; every Encode call gets its own traversal state.
type Encoder struct{}

func New() *Encoder {
	return &Encoder{}
}

// Encode writes root and its subtree into s, then writes the variant row as the completion marker.
// The work named by info.WorkID must already be stored. On error the store holds a partial
// tree and must be discarded.
func (e *Encoder) Encode(ctx context.Context, s store.Store, root doctree.Node, info VariantInfo) (*Result, error) {
	if root.Kind() != doctree.KindDocument {
		return nil, fmt.Errorf("%w: got %q", ErrNotDocument, root.Name())
	}

	w := &walk{
		store:    s,
		reported: mapset.NewThreadUnsafeSet[string](),
		result:   &Result{},
	}

	if err := w.document(ctx, root); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrPartialEncoding, info.WorkID, info.VariantID, err)
	}

	variant := &model.Variant{
		ID:       info.VariantID,
		Title:    normalize.Text(root.Title()),
		Language: root.Attribute("lang"),
		Version:  info.Version,
		WorkID:   info.WorkID,
	}
	if _, err := s.InsertVariant(ctx, variant); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrPartialEncoding, info.WorkID, info.VariantID, err)
	}
	w.result.Variant = variant

	logrus.Infof("encoded %s/%s: %d nodes, %d identifiers, %d skipped",
		info.WorkID, info.VariantID, w.result.Nodes, w.result.Identifiers, w.result.Skipped)

	return w.result, nil
}

// walk is the traversal state of one Encode call.
type walk struct {
	store store.Store
	// parents holds the row ids of the open container nodes, innermost last.
	parents  []int64
	reported mapset.Set[string]
	result   *Result
}

func (w *walk) document(ctx context.Context, root doctree.Node) error {
	rowID, err := w.insert(ctx, &model.Node{
		Kind:       root.Kind().String(),
		Attributes: attributes(normalize.Text(root.Title()), root.Attribute("lang")),
	})
	if err != nil {
		return err
	}

	if err := w.identify(ctx, root, rowID); err != nil {
		return err
	}

	return w.descend(ctx, rowID, root.Children())
}

func (w *walk) visit(ctx context.Context, node doctree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, ok := policyOf(node.Kind())
	if !ok {
		w.skip(node)
		return nil
	}
	if !p.insert {
		return nil
	}

	content, texts, err := serialize(node, p.content)
	if err != nil {
		return err
	}

	rowID, err := w.insert(ctx, &model.Node{
		Kind:        node.Kind().String(),
		ParentRowID: w.parent(),
		Attributes:  attributes(normalize.Text(node.Title()), ""),
		Content:     content,
	})
	if err != nil {
		return err
	}

	if err := w.identify(ctx, node, rowID); err != nil {
		return err
	}

	refs, err := xref.Register(ctx, w.store, rowID, texts...)
	if err != nil {
		return fmt.Errorf("register references of row %d: %w", rowID, err)
	}
	w.result.Identifiers += refs

	if !p.container {
		return nil
	}

	return w.descend(ctx, rowID, node.Children())
}

// descend visits children with rowID on top of the parent chain.
func (w *walk) descend(ctx context.Context, rowID int64, children []doctree.Node) error {
	w.parents = append(w.parents, rowID)
	defer func() {
		w.parents = w.parents[:len(w.parents)-1]
	}()

	for _, child := range children {
		if err := w.visit(ctx, child); err != nil {
			return err
		}
	}

	return nil
}

func (w *walk) parent() *int64 {
	parent := w.parents[len(w.parents)-1]
	return &parent
}

func (w *walk) insert(ctx context.Context, node *model.Node) (int64, error) {
	rowID, err := w.store.InsertNode(ctx, node)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", node.Kind, err)
	}
	w.result.Nodes++

	return rowID, nil
}

func (w *walk) identify(ctx context.Context, node doctree.Node, rowID int64) error {
	id := node.ID()
	if id == "" {
		return nil
	}

	if err := w.store.InsertIdentifier(ctx, id, rowID); err != nil {
		return fmt.Errorf("insert identifier %s: %w", id, err)
	}
	w.result.Identifiers++

	return nil
}

// skip drops a node of unknown kind and its subtree, warning once per kind name.
func (w *walk) skip(node doctree.Node) {
	w.result.Skipped++
	if w.reported.Add(node.Name()) {
		logrus.Warnf("skipping unrecognized node kind %q under row %d", node.Name(), *w.parent())
	}
}

// serialize returns the stored content of a node and the normalized texts it was built from.
func serialize(node doctree.Node, mode contentMode) (*string, []string, error) {
	switch mode {
	case contentText:
		text := normalize.Text(node.Source())
		return &text, []string{text}, nil
	case contentItems:
		items := normalize.Texts(node.Items())
		data, err := marshal(items)
		if err != nil {
			return nil, nil, fmt.Errorf("serialize %s items: %w", node.Kind(), err)
		}
		content := string(data)
		return &content, items, nil
	}

	return nil, nil, nil
}

// attributes encodes the non-empty attributes as a JSON object, or nil when there are none.
func attributes(title, language string) *datatypes.JSON {
	values := make(map[string]string, 2)
	if title != "" {
		values["title"] = title
	}
	if language != "" {
		values["language"] = language
	}
	if len(values) == 0 {
		return nil
	}

	data, err := marshal(values)
	if err != nil {
		// a map of strings always marshals
		panic(err)
	}

	attrs := datatypes.JSON(data)
	return &attrs
}

// marshal writes stored JSON with &, < and > kept literal.
func marshal(v any) ([]byte, error) {
	return json.MarshalWithOption(v, json.DisableHTMLEscape())
}
