package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/catalog"
	"bookshelf/internal/logger"
	"bookshelf/internal/models"
)

// bookRow is one list entry with its display strings precomputed.
type bookRow struct {
	models.Book
	CoverURL     string
	DisplayTitle string
	ISBNText     string
	PriceText    string
}

// applyListParams folds the request's tag and page params into the view.
// A tag change invalidates whatever page number the link carried, so the
// page param is honored only when the filter did not change.
func applyListParams(view *catalog.ViewState, c *gin.Context) {
	if tagParam, ok := c.GetQuery("tag"); ok {
		tagID, _ := strconv.Atoi(tagParam)
		if tagID != view.TagID() {
			view.SetFilter(tagID)
			return
		}
	}

	if pageParam, ok := c.GetQuery("page"); ok {
		if page, err := strconv.Atoi(pageParam); err == nil {
			view.SetPage(page)
		}
	}
}

func handleBooks(c *gin.Context) {
	svc := services(c)
	sess := c.MustGet("session").(*models.Session)
	id := c.GetString("session_id")

	view := svc.Sessions.View(id)
	if view == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	applyListParams(view, c)

	ctx := c.Request.Context()
	result := svc.Catalog.LoadPage(ctx, sess, view.Page(), svc.Config.PageSize, view.TagID(), nil)

	// The engine does not self-correct an out-of-range page; clamp against
	// the fresh count and fetch again if we were past the end.
	if clamped := catalog.ClampPage(view.Page(), result.TotalPages); clamped != view.Page() {
		view.SetPage(clamped)
		result = svc.Catalog.LoadPage(ctx, sess, clamped, svc.Config.PageSize, view.TagID(), nil)
	}

	tags, err := svc.Catalog.LoadTags(ctx, sess)
	if err != nil {
		logger.Warn("failed to load tags", "user_id", sess.User.ID, "error", err)
	}

	rows := make([]bookRow, len(result.Books))
	for i, book := range result.Books {
		rows[i] = bookRow{
			Book:         book,
			CoverURL:     svc.Gateway.PublicAssetURL(svc.Config.CoverBucket, book.CoverImageName),
			DisplayTitle: catalog.DisplayTitle(book),
			ISBNText:     catalog.FormatISBN(book.ISBN),
			PriceText:    catalog.FormatPrice(book.Price),
		}
	}

	csrfToken, err := svc.Sessions.IssueCSRF(id)
	if err != nil {
		logger.Warn("failed to issue CSRF token", "session_id", id, "error", err)
	}

	c.HTML(http.StatusOK, "books.html", gin.H{
		"Title":       "Bookshelf",
		"User":        sess.User,
		"Books":       rows,
		"Tags":        tags,
		"SelectedTag": view.TagID(),
		"CurrentPage": view.Page(),
		"TotalPages":  result.TotalPages,
		"Count":       result.Count,
		"CSRFToken":   csrfToken,
		"Error":       c.Query("error"),
	})
}
