package supabase

import (
	"net/url"
)

// PlaceholderCoverURL is shown whenever a book has no stored cover image.
const PlaceholderCoverURL = "https://placehold.jp/150x225.png?text=No+Image"

// PublicAssetURL returns a browser-displayable URL for an object in public
// storage. An empty name resolves to the placeholder image instead of a
// broken link.
func (c *Client) PublicAssetURL(bucket, name string) string {
	if bucket == "" || name == "" {
		return PlaceholderCoverURL
	}
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}
