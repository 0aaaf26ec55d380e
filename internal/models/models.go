package models

import (
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential bundle issued by the auth backend. The session
// manager owns it; every other component treats it as read-only.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past (or within a few seconds
// of) its expiry and needs a refresh before further use.
func (s *Session) Expired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt.Add(-30 * time.Second))
}

// Book is the server-aggregated projection returned by the books RPC.
// Contributor names arrive pre-joined into display strings. The date fields
// are the authenticated user's overlay values, not properties of the book
// itself; the same book carries independent values for each user.
type Book struct {
	ID                 int    `json:"id"`
	UserID             string `json:"user_id"`
	Title              string `json:"title"`
	SubTitle           string `json:"sub_title"`
	Edition            string `json:"edition"`
	LabelName          string `json:"label_name"`
	ClassificationCode string `json:"classification_code"`
	AuthorNames        string `json:"author_names"`
	TranslatorNames    string `json:"translator_names"`
	IllustratorNames   string `json:"illustrator_names"`
	PublisherName      string `json:"publisher_name"`
	Price              int    `json:"price"`
	ISBN10             string `json:"isbn_10"`
	ISBN               string `json:"isbn"`
	FormatName         string `json:"format_name"`
	Pages              int    `json:"pages"`
	ReleaseDate        string `json:"release_date"`
	CoverImageName     string `json:"book_cover_image_name"`
	PurchaseDate       string `json:"purchase_date"`
	ReadStartDate      string `json:"read_start_date"`
	ReadEndDate        string `json:"read_end_date"`
	TagNames           string `json:"tag_names"`
}

// Tag belongs to the shared tag vocabulary. GenreID only influences sort
// order in the selection UI.
type Tag struct {
	ID      int    `json:"id"`
	Name    string `json:"tag_name"`
	GenreID int    `json:"genre_id"`
}

// AuthMode selects which face of the auth form is shown.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeSignup
)

func (m AuthMode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

func ParseAuthMode(s string) AuthMode {
	if s == "signup" {
		return ModeSignup
	}
	return ModeLogin
}
