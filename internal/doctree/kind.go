package doctree

// Kind is the closed set of node categories the encoder understands.
// Anything else a parser emits maps to KindUnrecognized.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindDocument
	KindSection
	KindPreamble
	KindOpen
	KindQuote
	KindParagraph
	KindVerse
	KindUnorderedList
	KindOrderedList
	KindInlineAnchor
	KindInlineQuoted
)

var kindNames = map[Kind]string{
	KindDocument:      "document",
	KindSection:       "section",
	KindPreamble:      "preamble",
	KindOpen:          "open",
	KindQuote:         "quote",
	KindParagraph:     "paragraph",
	KindVerse:         "verse",
	KindUnorderedList: "ulist",
	KindOrderedList:   "olist",
	KindInlineAnchor:  "inline_anchor",
	KindInlineQuoted:  "inline_quoted",
}

var kindsByName = func() map[string]Kind {
	kinds := make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		kinds[name] = kind
	}
	return kinds
}()

// ParseKind maps a parser node name to its Kind.
func ParseKind(name string) Kind {
	if kind, ok := kindsByName[name]; ok {
		return kind
	}

	return KindUnrecognized
}

// String returns the node name stored in the nodes table.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unrecognized"
}
