package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bookshelf/internal/models"
	"bookshelf/internal/supabase"
)

// fakeGateway records the backend calls the engine makes and plays back
// canned responses.
type fakeGateway struct {
	calls []string

	countResult int
	countErr    error
	countFilter []supabase.Filter

	rowsJSON string
	rowsErr  error

	books    []models.Book
	booksErr error
}

func (f *fakeGateway) QueryCount(ctx context.Context, token, table string, filters []supabase.Filter) (int, error) {
	f.calls = append(f.calls, "count:"+table)
	f.countFilter = filters
	return f.countResult, f.countErr
}

func (f *fakeGateway) QueryRows(ctx context.Context, token, table, columns string, filters []supabase.Filter, order string, out interface{}) error {
	f.calls = append(f.calls, "rows:"+table)
	if f.rowsErr != nil {
		return f.rowsErr
	}
	if f.rowsJSON != "" {
		return json.Unmarshal([]byte(f.rowsJSON), out)
	}
	return nil
}

func (f *fakeGateway) CallAggregateBooks(ctx context.Context, token string, offset, limit, tagID int) ([]models.Book, error) {
	f.calls = append(f.calls, fmt.Sprintf("books:%d:%d:%d", offset, limit, tagID))
	return f.books, f.booksErr
}

func testSession() *models.Session {
	return &models.Session{
		AccessToken: "access-token",
		User:        models.User{ID: "user-1", Email: "reader@example.com"},
	}
}

func TestLoadPageRequiresSession(t *testing.T) {
	gw := &fakeGateway{}
	engine := NewEngine(gw)

	var reported []int
	result := engine.LoadPage(context.Background(), nil, 1, 5, 0, func(n int) {
		reported = append(reported, n)
	})

	if len(gw.calls) != 0 {
		t.Errorf("Expected no backend calls while unauthenticated, got %v", gw.calls)
	}
	if len(reported) != 1 || reported[0] != 0 {
		t.Errorf("Expected a single zero count report, got %v", reported)
	}
	if result.Count != 0 || len(result.Books) != 0 {
		t.Errorf("Expected empty result, got count=%d books=%d", result.Count, len(result.Books))
	}
	if result.TotalPages != 1 {
		t.Errorf("Expected total pages floored at 1, got %d", result.TotalPages)
	}
}

func TestLoadPageUnfiltered(t *testing.T) {
	gw := &fakeGateway{
		countResult: 12,
		books:       []models.Book{{ID: 6}, {ID: 7}},
	}
	engine := NewEngine(gw)

	result := engine.LoadPage(context.Background(), testSession(), 2, 5, 0, nil)

	if result.Count != 12 {
		t.Errorf("Expected count 12, got %d", result.Count)
	}
	if result.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", result.TotalPages)
	}
	if len(result.Books) != 2 {
		t.Errorf("Expected 2 books, got %d", len(result.Books))
	}

	// Page 2 at size 5 is offset 5.
	want := []string{"count:user_books", "books:5:5:0"}
	if len(gw.calls) != len(want) || gw.calls[0] != want[0] || gw.calls[1] != want[1] {
		t.Errorf("Expected calls %v, got %v", want, gw.calls)
	}
}

func TestLoadPageReportsCountBeforeRows(t *testing.T) {
	gw := &fakeGateway{countResult: 7, books: []models.Book{{ID: 1}}}
	engine := NewEngine(gw)

	engine.LoadPage(context.Background(), testSession(), 1, 5, 0, func(n int) {
		gw.calls = append(gw.calls, fmt.Sprintf("reported:%d", n))
	})

	joined := strings.Join(gw.calls, ",")
	if joined != "count:user_books,reported:7,books:0:5:0" {
		t.Errorf("Expected count to be reported before the row fetch, got %s", joined)
	}
}

func TestLoadPageFiltered(t *testing.T) {
	gw := &fakeGateway{
		rowsJSON:    `[{"book_id":3},{"book_id":9}]`,
		countResult: 2,
		books:       []models.Book{{ID: 3}},
	}
	engine := NewEngine(gw)

	result := engine.LoadPage(context.Background(), testSession(), 1, 5, 4, nil)

	if result.Count != 2 {
		t.Errorf("Expected count 2, got %d", result.Count)
	}

	// Tag membership is resolved first, then the owned rows are counted
	// restricted to that id set.
	want := []string{"rows:book_tags", "count:user_books", "books:0:5:4"}
	joined := strings.Join(gw.calls, ",")
	if joined != strings.Join(want, ",") {
		t.Errorf("Expected calls %v, got %v", want, gw.calls)
	}

	foundIn := false
	for _, f := range gw.countFilter {
		if f.Column == "book_id" && f.Cond == "in.(3,9)" {
			foundIn = true
		}
	}
	if !foundIn {
		t.Errorf("Expected count restricted to tag members, filters were %v", gw.countFilter)
	}
}

func TestLoadPageFilteredWithNoMembers(t *testing.T) {
	gw := &fakeGateway{rowsJSON: `[]`}
	engine := NewEngine(gw)

	var reported []int
	result := engine.LoadPage(context.Background(), testSession(), 1, 5, 4, func(n int) {
		reported = append(reported, n)
	})

	if result.Count != 0 {
		t.Errorf("Expected count 0 for an unused tag, got %d", result.Count)
	}
	if len(reported) != 1 || reported[0] != 0 {
		t.Errorf("Expected a zero count report, got %v", reported)
	}

	for _, call := range gw.calls {
		if call == "count:user_books" {
			t.Error("Expected no count query when the tag has no members")
		}
	}
}

func TestLoadPageDegradesOnCountFailure(t *testing.T) {
	gw := &fakeGateway{countErr: errors.New("backend down")}
	engine := NewEngine(gw)

	var reported []int
	result := engine.LoadPage(context.Background(), testSession(), 1, 5, 0, func(n int) {
		reported = append(reported, n)
	})

	if result.Count != 0 || len(result.Books) != 0 {
		t.Errorf("Expected empty degraded result, got %+v", result)
	}
	if len(reported) != 1 || reported[0] != 0 {
		t.Errorf("Expected a zero count report, got %v", reported)
	}

	for _, call := range gw.calls {
		if strings.HasPrefix(call, "books:") {
			t.Error("Expected no row fetch after a count failure")
		}
	}
}

func TestLoadPageDegradesOnRowFailure(t *testing.T) {
	gw := &fakeGateway{countResult: 9, booksErr: errors.New("backend down")}
	engine := NewEngine(gw)

	var reported []int
	result := engine.LoadPage(context.Background(), testSession(), 1, 5, 0, func(n int) {
		reported = append(reported, n)
	})

	if result.Count != 0 || len(result.Books) != 0 {
		t.Errorf("Expected empty degraded result, got %+v", result)
	}

	// The real count went out first; the failure retracts it with a zero.
	if len(reported) != 2 || reported[0] != 9 || reported[1] != 0 {
		t.Errorf("Expected reports [9 0], got %v", reported)
	}
}
