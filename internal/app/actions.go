package app

import "github.com/TobiSchelling/PaperPilot/internal/api"

// Action is a user intent. Every action is handled by Controller.Dispatch.
type Action interface {
	action()
}

// Navigate moves to a top-level view or an auth form.
type Navigate struct{ View ViewName }

// OpenArticle navigates to the detail view of one article.
type OpenArticle struct{ ID string }

// Back returns to the active top-level view.
type Back struct{}

// SelectTab switches the detail tab.
type SelectTab struct{ Tab TabName }

// Login submits the login form.
type Login struct{ Username, Password string }

// Register submits the register form.
type Register struct{ Username, Password string }

// Logout ends the session.
type Logout struct{}

// FetchNow starts on-demand server-side ingestion.
type FetchNow struct{}

// ToggleFavorite flips the favorite flag of an article.
type ToggleFavorite struct{ ID string }

// DeleteArticle removes an article. An empty ID means the open article.
// Confirmed skips the confirmation prompt.
type DeleteArticle struct {
	ID        string
	Confirmed bool
}

// AskQuestion submits a question about the open article.
type AskQuestion struct{ Question string }

// OpenSettings shows the settings overlay.
type OpenSettings struct{}

// EditSettings replaces the unsaved settings form.
type EditSettings struct{ Settings api.Settings }

// SaveSettings submits the settings form.
type SaveSettings struct{}

// CloseSettings hides the settings overlay, discarding edits.
type CloseSettings struct{}

// AddKeyword adds a tracked keyword.
type AddKeyword struct{ Keyword string }

// DeleteKeyword removes a tracked keyword.
type DeleteKeyword struct{ Keyword string }

// Search queries the remote corpus in the search overlay.
type Search struct{ Query string }

// SetSelected checks or unchecks a search result.
type SetSelected struct {
	EntryID string
	Checked bool
}

// BatchImport imports every selected search result.
type BatchImport struct{}

// CloseSearch hides the search overlay.
type CloseSearch struct{}

func (Navigate) action()       {}
func (OpenArticle) action()    {}
func (Back) action()           {}
func (SelectTab) action()      {}
func (Login) action()          {}
func (Register) action()       {}
func (Logout) action()         {}
func (FetchNow) action()       {}
func (ToggleFavorite) action() {}
func (DeleteArticle) action()  {}
func (AskQuestion) action()    {}
func (OpenSettings) action()   {}
func (EditSettings) action()   {}
func (SaveSettings) action()   {}
func (CloseSettings) action()  {}
func (AddKeyword) action()     {}
func (DeleteKeyword) action()  {}
func (Search) action()         {}
func (SetSelected) action()    {}
func (BatchImport) action()    {}
func (CloseSearch) action()    {}
