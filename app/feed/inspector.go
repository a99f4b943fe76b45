package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Inspector parses a feed document for reporting purposes. It has no part
// in the rewrite path; the rewriter never goes through gofeed because
// gofeed normalizes away the formatting the rewrite must preserve.
type Inspector struct {
	gofeedParser *gofeed.Parser
}

func NewInspector() *Inspector {
	return &Inspector{
		gofeedParser: gofeed.NewParser(),
	}
}

func (i *Inspector) Run(data []byte) (*Metadata, error) {
	parsed, err := i.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	for _, item := range parsed.Items {
		metadata.ItemTitles = append(metadata.ItemTitles, item.Title)
	}

	return metadata, nil
}
