package app

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/session"
)

// ViewName names a top-level view.
type ViewName string

const (
	ViewHome      ViewName = "home"
	ViewFavorites ViewName = "favorites"
	ViewSearch    ViewName = "search"
	ViewDetail    ViewName = "detail"
	ViewLogin     ViewName = "login"
	ViewRegister  ViewName = "register"
)

// RequiresAuth reports whether the view is only reachable when logged in.
func (v ViewName) RequiresAuth() bool {
	switch v {
	case ViewHome, ViewFavorites, ViewSearch, ViewDetail:
		return true
	}
	return false
}

// IsTopLevel reports whether the view is marked active in the navigation
// chrome. Detail and the auth forms never are.
func (v ViewName) IsTopLevel() bool {
	return v == ViewHome || v == ViewFavorites || v == ViewSearch
}

// ParseView resolves a user-supplied view name.
func ParseView(s string) (ViewName, error) {
	v := ViewName(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case ViewHome, ViewFavorites, ViewSearch, ViewDetail, ViewLogin, ViewRegister:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// TabName names a detail-view tab.
type TabName string

const (
	TabSummary  TabName = "summary"
	TabDetailed TabName = "detailed"
	TabImages   TabName = "images"
	TabQna      TabName = "qna"
)

// Tabs lists the tabs in strip order.
var Tabs = []TabName{TabSummary, TabDetailed, TabImages, TabQna}

// Valid reports whether t is one of Tabs.
func (t TabName) Valid() bool {
	for _, x := range Tabs {
		if t == x {
			return true
		}
	}
	return false
}

// ParseTab resolves a user-supplied tab name.
func ParseTab(s string) (TabName, error) {
	t := TabName(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tab %q", s)
	}
	return t, nil
}

// State is the whole client-side application state. It is owned by the
// Controller; callers only ever see copies returned by Snapshot.
type State struct {
	Session session.Session

	// View is the current view. ActiveNav is the top-level view marked in
	// the navigation chrome, "" when none is.
	View      ViewName
	ActiveNav ViewName

	// ArticleID is the most recently opened article. It survives leaving
	// the detail view; Article is only set while detail is displayed.
	ArticleID string
	Article   *api.Article

	// Articles is the card list shown by home or favorites.
	Articles []api.Article

	// Tab is the selected detail tab. It persists across articles.
	Tab TabName

	Qna      QnaState
	Settings SettingsState
	Search   SearchState

	// Blocking is the message of the blocking indicator, "" when hidden.
	Blocking string
}

// QnaState tracks the question input of the qna tab.
type QnaState struct {
	// Pending is the question awaiting an answer. The input is disabled
	// while it is set, across navigations, until the answer arrives.
	Pending string
	// ArticleID is the article Pending was asked about.
	ArticleID string
}

// pendingFor reports whether the question in flight belongs to id.
func (q QnaState) pendingFor(id string) bool { return q.Busy() && q.ArticleID == id }

// Busy reports whether a question is in flight.
func (q QnaState) Busy() bool { return q.Pending != "" }

// SettingsState is the settings overlay.
type SettingsState struct {
	Open     bool
	Form     api.Settings
	Keywords []string
}

// SearchState is the search-and-import overlay.
type SearchState struct {
	Open      bool
	Query     string
	Searching bool
	Failed    bool
	Results   []api.SearchResult
	Selected  map[string]bool
}

// SelectedIDs returns checked, importable entry IDs in result order.
func (s SearchState) SelectedIDs() []string {
	var ids []string
	for _, r := range s.Results {
		if !r.IsImported && s.Selected[r.EntryID] {
			ids = append(ids, r.EntryID)
		}
	}
	return ids
}

// SelectedCount is the running selection counter.
func (s SearchState) SelectedCount() int { return len(s.SelectedIDs()) }

// ImportEnabled reports whether the import button is enabled.
func (s SearchState) ImportEnabled() bool { return s.SelectedCount() > 0 }

func (s State) clone() State {
	out := s
	if s.Article != nil {
		a := cloneArticle(*s.Article)
		out.Article = &a
	}
	out.Articles = append([]api.Article(nil), s.Articles...)
	out.Settings.Keywords = append([]string(nil), s.Settings.Keywords...)
	out.Search.Results = append([]api.SearchResult(nil), s.Search.Results...)
	if s.Search.Selected != nil {
		out.Search.Selected = make(map[string]bool, len(s.Search.Selected))
		for k, v := range s.Search.Selected {
			out.Search.Selected[k] = v
		}
	}
	return out
}

func cloneArticle(a api.Article) api.Article {
	a.Authors = append([]string(nil), a.Authors...)
	a.QnaHistory = append([]api.QnA(nil), a.QnaHistory...)
	a.ImagePaths = append([]string(nil), a.ImagePaths...)
	if a.SummaryAnalysis != nil {
		sa := *a.SummaryAnalysis
		a.SummaryAnalysis = &sa
	}
	if a.DetailedAnalysis != nil {
		da := *a.DetailedAnalysis
		da.KeyInnovations = append([]string(nil), da.KeyInnovations...)
		a.DetailedAnalysis = &da
	}
	return a
}
