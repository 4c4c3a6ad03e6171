package encoder

import "github.com/emrgen/docseed/internal/doctree"

type contentMode int

const (
	contentNone contentMode = iota
	contentText             // normalized source text
	contentItems            // JSON array of normalized item texts
)

// policy says how one node kind is encoded.
type policy struct {
	insert    bool
	content   contentMode
	container bool
}

// policyOf is the complete kind to policy table. The second result is false for kinds
// the encoder does not know, which are skipped together with their subtree.
func policyOf(kind doctree.Kind) (policy, bool) {
	switch kind {
	case doctree.KindDocument,
		doctree.KindSection,
		doctree.KindPreamble,
		doctree.KindOpen,
		doctree.KindQuote:
		return policy{insert: true, content: contentNone, container: true}, true
	case doctree.KindParagraph,
		doctree.KindVerse:
		return policy{insert: true, content: contentText, container: true}, true
	case doctree.KindUnorderedList,
		doctree.KindOrderedList:
		return policy{insert: true, content: contentItems, container: false}, true
	case doctree.KindInlineAnchor,
		doctree.KindInlineQuoted:
		return policy{insert: false}, true
	case doctree.KindUnrecognized:
		return policy{}, false
	}

	return policy{}, false
}
