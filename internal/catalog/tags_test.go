package catalog

import (
	"context"
	"testing"

	"bookshelf/internal/models"
)

func TestSortTags(t *testing.T) {
	tags := []models.Tag{
		{ID: 1, Name: "ミステリ", GenreID: 2},
		{ID: 2, Name: "エッセイ", GenreID: 1},
		{ID: 3, Name: "SF", GenreID: 2},
		{ID: 4, Name: "アート", GenreID: 1},
	}

	SortTags(tags)

	// Genre grouping wins over name.
	if tags[0].GenreID != 1 || tags[1].GenreID != 1 {
		t.Fatalf("Expected genre 1 tags first, got %+v", tags)
	}
	if tags[0].Name != "アート" {
		t.Errorf("Expected アート before エッセイ within genre 1, got %s", tags[0].Name)
	}
	if tags[2].Name != "SF" {
		t.Errorf("Expected SF first within genre 2, got %s", tags[2].Name)
	}
}

func TestSortTagsIsStable(t *testing.T) {
	tags := []models.Tag{
		{ID: 10, Name: "同名", GenreID: 1},
		{ID: 11, Name: "同名", GenreID: 1},
	}

	SortTags(tags)

	if tags[0].ID != 10 || tags[1].ID != 11 {
		t.Errorf("Expected equal tags to keep their order, got %+v", tags)
	}
}

func TestLoadTagsRequiresSession(t *testing.T) {
	gw := &fakeGateway{}
	engine := NewEngine(gw)

	tags, err := engine.LoadTags(context.Background(), nil)
	if err != nil {
		t.Fatal("Expected no error for anonymous tag load:", err)
	}
	if tags != nil {
		t.Errorf("Expected no tags while unauthenticated, got %v", tags)
	}
	if len(gw.calls) != 0 {
		t.Errorf("Expected no backend calls, got %v", gw.calls)
	}
}

func TestLoadTagsOrdersVocabulary(t *testing.T) {
	gw := &fakeGateway{
		rowsJSON: `[
			{"id":1,"tag_name":"ミステリ","genre_id":2},
			{"id":2,"tag_name":"アート","genre_id":1}
		]`,
	}
	engine := NewEngine(gw)

	tags, err := engine.LoadTags(context.Background(), testSession())
	if err != nil {
		t.Fatal("Failed to load tags:", err)
	}

	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}
	if tags[0].Name != "アート" {
		t.Errorf("Expected genre 1 tag first, got %s", tags[0].Name)
	}
}
