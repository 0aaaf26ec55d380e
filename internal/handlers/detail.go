package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/editor"
	"bookshelf/internal/models"
)

// handleEditBook returns the lazily-loaded editor state for one book: the
// tag vocabulary, the book's current tag ids, and the user's date fields.
// The list page fetch stays cheap because none of this rides along with it.
func handleEditBook(c *gin.Context) {
	svc := services(c)
	sess := c.MustGet("session").(*models.Session)

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	ctx := c.Request.Context()

	// The list page already knows this book's dates; echoed here they seed
	// the pickers even when the user_books fetch fails.
	fallback := &models.Book{
		PurchaseDate:  c.Query("purchase_date"),
		ReadStartDate: c.Query("read_start_date"),
		ReadEndDate:   c.Query("read_end_date"),
	}

	ed := editor.New(svc.Gateway, sess, bookID, nil)
	ed.Load(ctx, fallback)

	tags, err := svc.Catalog.LoadTags(ctx, sess)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":            tags,
		"selected_tags":   ed.Selected(),
		"purchase_date":   ed.PurchaseDate,
		"read_start_date": ed.ReadStartDate,
		"read_end_date":   ed.ReadEndDate,
	})
}

func handleUpdateBook(c *gin.Context) {
	svc := services(c)
	sess := c.MustGet("session").(*models.Session)

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	var tagIDs []int
	for _, raw := range c.PostFormArray("tag_ids") {
		tagID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag id"})
			return
		}
		tagIDs = append(tagIDs, tagID)
	}

	refreshed := false
	ed := editor.New(svc.Gateway, sess, bookID, func() { refreshed = true })
	ed.SetSelected(tagIDs)
	ed.PurchaseDate = c.PostForm("purchase_date")
	ed.ReadStartDate = c.PostForm("read_start_date")
	ed.ReadEndDate = c.PostForm("read_end_date")

	if err := ed.Save(c.Request.Context()); err != nil {
		var saveErr *editor.SaveError
		if errors.As(err, &saveErr) && saveErr.Step == editor.StepDates {
			// Tags were already committed; only the dates are stale.
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Tags were saved, but updating the dates failed. Reopen the book to retry.",
				"step":  saveErr.Step,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to save tags. No changes were applied.",
			"step":  editor.StepTags,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "refresh": refreshed})
}
