package feed

import "errors"

// ErrMalformedFeed reports input that is not a well-formed UTF-8 RSS
// document. Rewriting is all-or-nothing; the original bytes are never
// partially emitted.
var ErrMalformedFeed = errors.New("malformed feed")

type encodingStyle int

const (
	// stylePlain is text written directly in the document with entity
	// escaping.
	stylePlain encodingStyle = iota
	// styleCDATA is text wrapped in a CDATA section.
	styleCDATA
)

// titlePart is one text or CDATA segment of an item title as it appeared
// in the source document.
type titlePart struct {
	text  string
	cdata bool
}

// Metadata is the inspector's view of a parsed feed.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	ItemTitles  []string
}
