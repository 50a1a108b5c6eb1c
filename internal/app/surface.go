package app

import (
	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/session"
)

// Region is a part of the screen the math pass can be applied to.
type Region int

const (
	// RegionContent is the single content region owned by the router.
	RegionContent Region = iota
	// RegionTab is the tab body inside the detail view.
	RegionTab
)

// Role marks a transcript line.
type Role int

const (
	RoleQuestion Role = iota
	RoleAnswer
)

// ViewData is everything a view needs to be presented. Loaders fill it;
// presenters only read it.
type ViewData struct {
	View      ViewName
	Articles  []api.Article
	Article   *api.Article
	Tab       TabName
	EmptyText string
	// ExportURL is the bulk-export link of the favorites view.
	ExportURL string
	// Username prefills the login form.
	Username string
}

// Section is a labeled block of prose in a tab body.
type Section struct {
	Heading string
	Text    string
	Bullets []string
}

// ArticleActions are the buttons shown under the summary and detailed tabs.
type ArticleActions struct {
	ArticleID   string
	PDFURL      string
	CitationURL string
}

// TabBody is the rendered content of one detail tab.
type TabBody struct {
	Tab      TabName
	Sections []Section
	// Images are absolute media URLs.
	Images []string
	// Empty is shown instead of the body when there is nothing to show.
	Empty         string
	Transcript    []api.QnA
	QuestionInput bool
	Actions       *ArticleActions
}

// Surface is the presentation side of the controller. The controller calls
// it with its lock held, so implementations must not call back into the
// controller and must copy whatever they retain.
type Surface interface {
	SetNavigation(s session.Session, active ViewName)
	ShowPlaceholder(text string)
	Present(data ViewData)
	PresentTab(body TabBody)
	RenderMath(region Region)

	SetFavorite(id string, favorited bool)
	RemoveCard(id string)
	AppendTranscript(role Role, text string)
	SetQuestionInput(enabled, focused bool)

	ShowBlocking(message string)
	HideBlocking()

	PresentSettings(s SettingsState)
	PresentKeywords(keywords []string)
	HideSettings()

	PresentSearch(s SearchState)
	PresentSelection(count int, importEnabled bool)
	HideSearch()
}
