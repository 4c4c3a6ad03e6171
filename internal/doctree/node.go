package doctree

// Node is the view of a parsed document element the encoder consumes.
type Node interface {
	// Kind is the node category.
	Kind() Kind
	// Name is the raw node name reported by the parser.
	Name() string
	// Title is the optional title, empty when absent.
	Title() string
	// ID is the author-assigned anchor, empty when absent.
	ID() string
	// Source is the attribute-substituted source text of paragraph-like nodes.
	Source() string
	// Items are the item texts of list nodes, in document order.
	Items() []string
	// Attribute returns a document attribute such as "lang", empty when unset.
	Attribute(name string) string
	// Children are the child nodes in document order.
	Children() []Node
}

var _ Node = (*Block)(nil)

// Block is the plain value form of a parsed node, as exported by the parser.
type Block struct {
	NodeName  string            `json:"name"`
	Heading   string            `json:"title,omitempty"`
	Anchor    string            `json:"id,omitempty"`
	Text      string            `json:"source,omitempty"`
	ListItems []string          `json:"items,omitempty"`
	Attrs     map[string]string `json:"attributes,omitempty"`
	Blocks    []*Block          `json:"blocks,omitempty"`
}

func (b *Block) Kind() Kind {
	return ParseKind(b.NodeName)
}

func (b *Block) Name() string {
	return b.NodeName
}

func (b *Block) Title() string {
	return b.Heading
}

func (b *Block) ID() string {
	return b.Anchor
}

func (b *Block) Source() string {
	return b.Text
}

func (b *Block) Items() []string {
	return b.ListItems
}

func (b *Block) Attribute(name string) string {
	return b.Attrs[name]
}

func (b *Block) Children() []Node {
	children := make([]Node, 0, len(b.Blocks))
	for _, block := range b.Blocks {
		children = append(children, block)
	}

	return children
}

// Count returns the number of nodes in the subtree rooted at b, b included.
func (b *Block) Count() int {
	count := 1
	for _, block := range b.Blocks {
		count += block.Count()
	}

	return count
}
