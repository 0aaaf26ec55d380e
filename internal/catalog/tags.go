package catalog

import (
	"context"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"bookshelf/internal/models"
)

// tagCollator orders tag names the way a user expects to read them, not
// bytewise. The vocabulary is Japanese.
var tagCollator = collate.New(language.Japanese)

// LoadTags fetches the full tag vocabulary ordered by genre grouping and
// then name. The order is a display convenience but must be stable across
// reloads. Returns nothing while unauthenticated.
func (e *Engine) LoadTags(ctx context.Context, sess *models.Session) ([]models.Tag, error) {
	if sess == nil {
		return nil, nil
	}

	var tags []models.Tag
	err := e.gw.QueryRows(ctx, sess.AccessToken, "tags", "id,tag_name,genre_id",
		nil, "genre_id.asc,tag_name.asc", &tags)
	if err != nil {
		return nil, err
	}

	// The backend's ordering is bytewise; re-sort locale-aware.
	SortTags(tags)
	return tags, nil
}

// SortTags sorts by genre grouping first, then collated name.
func SortTags(tags []models.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].GenreID != tags[j].GenreID {
			return tags[i].GenreID < tags[j].GenreID
		}
		return tagCollator.CompareString(tags[i].Name, tags[j].Name) < 0
	})
}
