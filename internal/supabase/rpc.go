package supabase

import (
	"context"

	"bookshelf/internal/models"
)

const aggregateBooksFn = "get_books_with_aggregated_authors"

// CallAggregateBooks returns one page of book projections with contributor
// and tag names already aggregated server-side. offset is zero-based. A
// tagID of zero means no tag constraint; the parameter is then omitted
// entirely, which is how the backend function distinguishes the two cases.
func (c *Client) CallAggregateBooks(ctx context.Context, token string, offset, limit, tagID int) ([]models.Book, error) {
	params := map[string]interface{}{
		"p_offset": offset,
		"p_limit":  limit,
	}
	if tagID != 0 {
		params["p_tag"] = tagID
	}

	var books []models.Book
	if _, err := c.do(ctx, "aggregate_books", "POST", "/rest/v1/rpc/"+aggregateBooksFn, nil, nil, token, params, &books); err != nil {
		return nil, err
	}

	return books, nil
}
