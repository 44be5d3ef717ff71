// Package bookmark defines the bookmark collection and its flat-file store.
package bookmark

import "encoding/json"

// Bookmark is a single saved URL with its metadata.
type Bookmark struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Created     int64    `json:"created"`
	Updated     int64    `json:"updated"`
}

// Ref is the minimal bookmark identity handed to the archive subsystem.
type Ref struct {
	ID  string
	URL string
}

// Collection is the persisted shape of bookmarks.json. Tags and the
// bookmark-tag mapping are owned by the frontend and round-tripped as-is.
type Collection struct {
	Bookmarks       []Bookmark      `json:"bookmarks"`
	Tags            json.RawMessage `json:"tags"`
	BookmarksToTags json.RawMessage `json:"bookmarksToTags"`
}

// EmptyCollection returns the initial collection written by init.
func EmptyCollection() Collection {
	return Collection{
		Bookmarks:       []Bookmark{},
		Tags:            json.RawMessage("[]"),
		BookmarksToTags: json.RawMessage("[]"),
	}
}

// Refs projects the collection down to archive-facing identities, in
// collection order.
func (c Collection) Refs() []Ref {
	refs := make([]Ref, 0, len(c.Bookmarks))
	for _, bm := range c.Bookmarks {
		refs = append(refs, Ref{ID: bm.ID, URL: bm.URL})
	}
	return refs
}
