// Package editor edits one book's tag assignments and the signed-in
// user's date fields for it.
package editor

import (
	"context"
	"fmt"
	"sort"

	"bookshelf/internal/logger"
	"bookshelf/internal/models"
	"bookshelf/internal/supabase"
)

// Gateway is the slice of the backend client the editor needs.
type Gateway interface {
	QueryRows(ctx context.Context, token, table, columns string, filters []supabase.Filter, order string, out interface{}) error
	ReplaceAssociations(ctx context.Context, token, table string, key supabase.Filter, rows interface{}) error
	UpsertFields(ctx context.Context, token, table string, keys []supabase.Filter, fields map[string]string) error
}

// Save steps reported by SaveError.
const (
	StepTags  = "tags"
	StepDates = "dates"
)

// SaveError tells the user which half of a save failed. When Step is
// StepDates the tag replacement has already been committed and stays
// committed; the backend offers no cross-table transaction to roll it
// back with.
type SaveError struct {
	Step string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Step, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Editor holds one book's editable state: the selected tag id set and the
// user's purchase/read dates.
type Editor struct {
	gw        Gateway
	sess      *models.Session
	bookID    int
	selected  map[int]bool
	onRefresh func()

	PurchaseDate  string
	ReadStartDate string
	ReadEndDate   string
}

// New creates an editor for one book. onRefresh is invoked after a fully
// successful save so the catalog can reload.
func New(gw Gateway, sess *models.Session, bookID int, onRefresh func()) *Editor {
	return &Editor{
		gw:        gw,
		sess:      sess,
		bookID:    bookID,
		selected:  make(map[int]bool),
		onRefresh: onRefresh,
	}
}

type bookTagRow struct {
	BookID int `json:"book_id"`
	TagID  int `json:"tag_id"`
}

// Load pulls the book's current tag assignments and the user's date fields
// from the backend. Fetch failures are not fatal: the tag selection just
// starts empty, and the dates keep whatever the in-memory book already
// carried (fallback may be nil).
func (ed *Editor) Load(ctx context.Context, fallback *models.Book) {
	if fallback != nil {
		ed.PurchaseDate = fallback.PurchaseDate
		ed.ReadStartDate = fallback.ReadStartDate
		ed.ReadEndDate = fallback.ReadEndDate
	}

	var assigned []struct {
		TagID int `json:"tag_id"`
	}
	err := ed.gw.QueryRows(ctx, ed.sess.AccessToken, "book_tags", "tag_id",
		[]supabase.Filter{supabase.EqInt("book_id", ed.bookID)}, "", &assigned)
	if err != nil {
		logger.Warn("failed to load assigned tags", "book_id", ed.bookID, "error", err)
	} else {
		for _, row := range assigned {
			ed.selected[row.TagID] = true
		}
	}

	var dates []struct {
		PurchaseDate  string `json:"purchase_date"`
		ReadStartDate string `json:"read_start_date"`
		ReadEndDate   string `json:"read_end_date"`
	}
	err = ed.gw.QueryRows(ctx, ed.sess.AccessToken, "user_books",
		"purchase_date,read_start_date,read_end_date",
		[]supabase.Filter{
			supabase.Eq("user_id", ed.sess.User.ID),
			supabase.EqInt("book_id", ed.bookID),
		}, "", &dates)
	if err != nil {
		logger.Warn("failed to load book dates", "book_id", ed.bookID, "error", err)
		return
	}
	if len(dates) > 0 {
		ed.PurchaseDate = dates[0].PurchaseDate
		ed.ReadStartDate = dates[0].ReadStartDate
		ed.ReadEndDate = dates[0].ReadEndDate
	}
}

// ToggleTag adds the tag to the selection if absent, removes it if
// present.
func (ed *Editor) ToggleTag(tagID int) {
	if ed.selected[tagID] {
		delete(ed.selected, tagID)
	} else {
		ed.selected[tagID] = true
	}
}

// SetSelected replaces the whole selection.
func (ed *Editor) SetSelected(tagIDs []int) {
	ed.selected = make(map[int]bool, len(tagIDs))
	for _, id := range tagIDs {
		ed.selected[id] = true
	}
}

// Selected returns the selected tag ids in ascending order.
func (ed *Editor) Selected() []int {
	ids := make([]int, 0, len(ed.selected))
	for id := range ed.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Save commits the edit in two sequential steps: replace the book's tag
// associations, then update the non-empty date fields on the user's
// relation row. The second step is only attempted once the first has
// succeeded, so a tag failure never touches the dates.
func (ed *Editor) Save(ctx context.Context) error {
	rows := make([]bookTagRow, 0, len(ed.selected))
	for _, tagID := range ed.Selected() {
		rows = append(rows, bookTagRow{BookID: ed.bookID, TagID: tagID})
	}

	err := ed.gw.ReplaceAssociations(ctx, ed.sess.AccessToken, "book_tags",
		supabase.EqInt("book_id", ed.bookID), rows)
	if err != nil {
		logger.Warn("failed to replace book tags", "book_id", ed.bookID, "error", err)
		return &SaveError{Step: StepTags, Err: err}
	}

	err = ed.gw.UpsertFields(ctx, ed.sess.AccessToken, "user_books",
		[]supabase.Filter{
			supabase.Eq("user_id", ed.sess.User.ID),
			supabase.EqInt("book_id", ed.bookID),
		},
		map[string]string{
			"purchase_date":   ed.PurchaseDate,
			"read_start_date": ed.ReadStartDate,
			"read_end_date":   ed.ReadEndDate,
		})
	if err != nil {
		logger.Warn("failed to update book dates", "book_id", ed.bookID, "error", err)
		return &SaveError{Step: StepDates, Err: err}
	}

	logger.Info("book updated", "book_id", ed.bookID, "user_id", ed.sess.User.ID)

	if ed.onRefresh != nil {
		ed.onRefresh()
	}
	return nil
}
