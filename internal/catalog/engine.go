package catalog

import (
	"context"

	"bookshelf/internal/logger"
	"bookshelf/internal/models"
	"bookshelf/internal/supabase"
)

// Gateway is the slice of the backend client the engine needs.
type Gateway interface {
	QueryCount(ctx context.Context, token, table string, filters []supabase.Filter) (int, error)
	QueryRows(ctx context.Context, token, table, columns string, filters []supabase.Filter, order string, out interface{}) error
	CallAggregateBooks(ctx context.Context, token string, offset, limit, tagID int) ([]models.Book, error)
}

// Engine loads pages of the catalog: it resolves the total count for the
// active filter, then fetches the matching page of aggregated book rows.
type Engine struct {
	gw Gateway
}

func NewEngine(gw Gateway) *Engine {
	return &Engine{gw: gw}
}

// PageResult is one resolved page. Count and TotalPages describe the whole
// filtered set, Books only the requested page.
type PageResult struct {
	Count      int
	TotalPages int
	Books      []models.Book
}

// LoadPage fetches page (1-based) of the user's books, restricted to tagID
// when non-zero. onCount, if given, is invoked with the total as soon as
// the count resolves, before the row fetch, so pagination can update first.
//
// Query failures never escape this boundary: a transient backend error
// degrades to a zero count and an empty list rather than breaking the
// view. The requested page is not corrected here; callers clamp it against
// TotalPages before asking for the next page.
func (e *Engine) LoadPage(ctx context.Context, sess *models.Session, page, pageSize, tagID int, onCount func(int)) PageResult {
	report := func(count int) {
		if onCount != nil {
			onCount(count)
		}
	}
	empty := PageResult{TotalPages: 1}

	// Never query as anonymous.
	if sess == nil {
		report(0)
		return empty
	}

	count, err := e.totalCount(ctx, sess, tagID)
	if err != nil {
		logger.Warn("failed to count books", "user_id", sess.User.ID, "tag_id", tagID, "error", err)
		report(0)
		return empty
	}
	report(count)

	offset := (page - 1) * pageSize
	books, err := e.gw.CallAggregateBooks(ctx, sess.AccessToken, offset, pageSize, tagID)
	if err != nil {
		logger.Warn("failed to fetch book page", "user_id", sess.User.ID, "page", page, "error", err)
		report(0)
		return empty
	}

	return PageResult{
		Count:      count,
		TotalPages: TotalPages(count, pageSize),
		Books:      books,
	}
}

// totalCount counts the user's owned relation rows. With a tag filter the
// backend cannot count across the association table directly, so tag
// membership is resolved first and the count is restricted to that id set.
func (e *Engine) totalCount(ctx context.Context, sess *models.Session, tagID int) (int, error) {
	owned := supabase.Eq("user_id", sess.User.ID)

	if tagID == 0 {
		return e.gw.QueryCount(ctx, sess.AccessToken, "user_books", []supabase.Filter{owned})
	}

	var rows []struct {
		BookID int `json:"book_id"`
	}
	err := e.gw.QueryRows(ctx, sess.AccessToken, "book_tags", "book_id",
		[]supabase.Filter{supabase.EqInt("tag_id", tagID)}, "", &rows)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.BookID
	}

	return e.gw.QueryCount(ctx, sess.AccessToken, "user_books",
		[]supabase.Filter{owned, supabase.In("book_id", ids)})
}
