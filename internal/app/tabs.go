package app

import (
	"fmt"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

// Placeholders of the detail tabs.
const (
	NoSummary   = "No summary available."
	NoSection   = "None"
	NoImages    = "No figures were extracted for this article. Images are only available when the PDF could be downloaded and parsed."
	NoQuestions = "No questions yet. Ask something about this article."
)

// Headings of the detailed tab.
const (
	HeadingBackground  = "Background"
	HeadingMethodology = "Methodology"
	HeadingInnovations = "Key innovations"
	HeadingImpact      = "Potential impact"
)

// Links resolves the addresses a tab body points at.
type Links interface {
	MediaURL(p string) string
	CitationURL(id string) string
}

// BuildTabBody renders one tab from an already fetched article.
func BuildTabBody(tab TabName, a *api.Article, links Links) TabBody {
	body := TabBody{Tab: tab}
	if a == nil {
		return body
	}
	switch tab {
	case TabSummary:
		text := ""
		if a.SummaryAnalysis != nil {
			text = a.SummaryAnalysis.Summary
		}
		if text == "" {
			body.Empty = NoSummary
		} else {
			body.Sections = []Section{{Text: text}}
		}
		body.Actions = articleActions(a, links)
	case TabDetailed:
		var d api.DetailedAnalysis
		if a.DetailedAnalysis != nil {
			d = *a.DetailedAnalysis
		}
		innov := Section{Heading: HeadingInnovations, Bullets: append([]string(nil), d.KeyInnovations...)}
		if len(innov.Bullets) == 0 {
			innov.Text = NoSection
		}
		body.Sections = []Section{
			{Heading: HeadingBackground, Text: orNone(d.Background)},
			{Heading: HeadingMethodology, Text: orNone(d.Methodology)},
			innov,
			{Heading: HeadingImpact, Text: orNone(d.PotentialImpact)},
		}
		body.Actions = articleActions(a, links)
	case TabImages:
		for _, p := range a.ImagePaths {
			body.Images = append(body.Images, links.MediaURL(p))
		}
		if len(body.Images) == 0 {
			body.Empty = NoImages
		}
	case TabQna:
		body.Transcript = append([]api.QnA(nil), a.QnaHistory...)
		body.QuestionInput = true
		if len(body.Transcript) == 0 {
			body.Empty = NoQuestions
		}
	}
	return body
}

func articleActions(a *api.Article, links Links) *ArticleActions {
	return &ArticleActions{
		ArticleID:   a.ID.String(),
		PDFURL:      a.PDFURL,
		CitationURL: links.CitationURL(a.ID.String()),
	}
}

func orNone(s string) string {
	if s == "" {
		return NoSection
	}
	return s
}

// selectTab remembers the tab and re-renders the tab body of the open
// article without fetching it again.
func (c *Controller) selectTab(tab TabName) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown tab %q", tab)
	}
	c.mu.Lock()
	c.state.Tab = tab
	if c.state.View == ViewDetail && c.state.Article != nil {
		c.surface.PresentTab(BuildTabBody(tab, c.state.Article, c.api))
		c.surface.RenderMath(RegionTab)
		c.showPendingLocked()
	}
	c.mu.Unlock()

	if c.prefs != nil {
		if err := c.prefs.SetPreference(prefDetailTab, string(tab)); err != nil {
			c.logger.WithError(err).Warn("Failed to save selected tab")
		}
	}
	return nil
}
