package catalog

import (
	"sync"
)

// ViewState tracks the browsing position of one signed-in session: the
// current page and the selected tag filter. It lives from login to logout
// and starts over on every new login.
type ViewState struct {
	mu    sync.Mutex
	page  int
	tagID int
}

func NewViewState() *ViewState {
	return &ViewState{page: 1}
}

// SetFilter selects a tag filter (zero clears it) and always resets the
// page to 1: the old page number indexed into a different result set.
func (v *ViewState) SetFilter(tagID int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tagID = tagID
	v.page = 1
}

// SetPage moves to the given page, floored at 1. Clamping against the
// total happens after the count is known; see ClampPage.
func (v *ViewState) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page < 1 {
		page = 1
	}
	v.page = page
}

func (v *ViewState) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *ViewState) TagID() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tagID
}
