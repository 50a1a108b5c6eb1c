// Package screen renders the application state to a terminal. It keeps a
// retained model of what is on screen and prints it on demand.
package screen

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"

	"github.com/TobiSchelling/PaperPilot/internal/app"
	"github.com/TobiSchelling/PaperPilot/internal/session"
)

const (
	summaryPreview = 200
	minWidth       = 40
)

var tabLabels = map[app.TabName]string{
	app.TabSummary:  "Summary",
	app.TabDetailed: "Detailed",
	app.TabImages:   "Images",
	app.TabQna:      "Q&A",
}

// Options configures a Terminal.
type Options struct {
	Width int
	// Math enables the TeX-to-Unicode pass.
	Math bool
	// Spinner receives the blocking indicator animation. When nil the
	// indicator is only part of the rendered screen.
	Spinner io.Writer
}

type card struct {
	id        string
	title     string
	authors   string
	favorited bool
}

type header struct {
	id        string
	title     string
	authors   string
	published string
	favorited bool
}

type line struct {
	role app.Role
	text string
}

type tabModel struct {
	tab          app.TabName
	sections     []app.Section
	images       []string
	empty        string
	transcript   []line
	input        bool
	inputEnabled bool
	actions      *app.ArticleActions
}

// Terminal is the app.Surface of the CLI.
type Terminal struct {
	width   int
	math    bool
	spinOut io.Writer

	mu          sync.Mutex
	spin        *spinner
	session     session.Session
	active      app.ViewName
	placeholder string
	view        app.ViewName
	emptyText   string
	exportURL   string
	username    string
	cards       []card
	header      *header
	tab         app.TabName
	body        *tabModel
	blocking    string

	settings *app.SettingsState
	keywords []string

	search        *app.SearchState
	selected      int
	importEnabled bool
}

// New creates a Terminal.
func New(opts Options) *Terminal {
	width := opts.Width
	if width < minWidth {
		width = minWidth
	}
	return &Terminal{width: width, math: opts.Math, spinOut: opts.Spinner}
}

func (t *Terminal) SetNavigation(s session.Session, active app.ViewName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = s
	t.active = active
}

func (t *Terminal) ShowPlaceholder(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.placeholder = text
	t.cards = nil
	t.header = nil
	t.body = nil
}

func (t *Terminal) Present(d app.ViewData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.placeholder = ""
	t.view = d.View
	t.emptyText = d.EmptyText
	t.exportURL = d.ExportURL
	t.username = d.Username
	t.tab = d.Tab
	t.body = nil
	t.cards = t.cards[:0]
	for _, a := range d.Articles {
		t.cards = append(t.cards, card{id: a.ID.String(), title: a.Title, authors: a.AuthorList(), favorited: a.IsFavorited})
	}
	t.header = nil
	if a := d.Article; a != nil {
		t.header = &header{
			id:        a.ID.String(),
			title:     a.Title,
			authors:   a.AuthorList(),
			published: a.Published,
			favorited: a.IsFavorited,
		}
	}
}

func (t *Terminal) PresentTab(b app.TabBody) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tab = b.Tab
	m := &tabModel{
		tab:          b.Tab,
		images:       append([]string(nil), b.Images...),
		empty:        b.Empty,
		input:        b.QuestionInput,
		inputEnabled: true,
	}
	for _, s := range b.Sections {
		flat := app.Section{Heading: s.Heading, Text: Flatten(s.Text)}
		for _, bullet := range s.Bullets {
			flat.Bullets = append(flat.Bullets, Flatten(bullet))
		}
		m.sections = append(m.sections, flat)
	}
	for _, qa := range b.Transcript {
		m.transcript = append(m.transcript,
			line{role: app.RoleQuestion, text: qa.Question},
			line{role: app.RoleAnswer, text: Flatten(qa.Answer)})
	}
	if b.Actions != nil {
		actions := *b.Actions
		m.actions = &actions
	}
	t.body = m
}

func (t *Terminal) RenderMath(region app.Region) {
	if !t.math {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch region {
	case app.RegionContent:
		if t.header != nil {
			t.header.title = RenderMath(t.header.title)
		}
		for i := range t.cards {
			t.cards[i].title = RenderMath(t.cards[i].title)
		}
	case app.RegionTab:
		if t.body == nil {
			return
		}
		for i := range t.body.sections {
			s := &t.body.sections[i]
			s.Text = RenderMath(s.Text)
			for j := range s.Bullets {
				s.Bullets[j] = RenderMath(s.Bullets[j])
			}
		}
		for i := range t.body.transcript {
			t.body.transcript[i].text = RenderMath(t.body.transcript[i].text)
		}
	}
}

func (t *Terminal) SetFavorite(id string, favorited bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.header != nil && t.header.id == id {
		t.header.favorited = favorited
	}
	for i := range t.cards {
		if t.cards[i].id == id {
			t.cards[i].favorited = favorited
		}
	}
}

func (t *Terminal) RemoveCard(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.cards {
		if t.cards[i].id == id {
			t.cards = append(t.cards[:i], t.cards[i+1:]...)
			return
		}
	}
}

func (t *Terminal) AppendTranscript(role app.Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.body == nil || t.body.tab != app.TabQna {
		return
	}
	if role == app.RoleAnswer {
		text = Flatten(text)
	}
	t.body.transcript = append(t.body.transcript, line{role: role, text: text})
	t.body.empty = ""
}

func (t *Terminal) SetQuestionInput(enabled, focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.body != nil {
		t.body.inputEnabled = enabled
	}
}

func (t *Terminal) ShowBlocking(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocking = message
	if t.spinOut != nil && t.spin == nil {
		t.spin = startSpinner(t.spinOut, message)
	}
}

func (t *Terminal) HideBlocking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocking = ""
	if t.spin != nil {
		t.spin.Stop()
		t.spin = nil
	}
}

func (t *Terminal) PresentSettings(s app.SettingsState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = &s
}

func (t *Terminal) PresentKeywords(keywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keywords = append([]string(nil), keywords...)
}

func (t *Terminal) HideSettings() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = nil
	t.keywords = nil
}

func (t *Terminal) PresentSearch(s app.SearchState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = &s
}

func (t *Terminal) PresentSelection(count int, importEnabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = count
	t.importEnabled = importEnabled
}

func (t *Terminal) HideSearch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = nil
	t.selected = 0
	t.importEnabled = false
}

// Render returns the whole screen as text.
func (t *Terminal) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString(t.renderNav())
	b.WriteString("\n\n")
	if t.blocking != "" {
		b.WriteString(blockingStyle.Render("⏳ " + t.blocking))
		b.WriteString("\n\n")
	}
	b.WriteString(t.renderContent())
	if t.settings != nil {
		b.WriteString("\n\n")
		b.WriteString(overlayStyle.Render(t.renderSettings()))
	}
	if t.search != nil {
		b.WriteString("\n\n")
		b.WriteString(overlayStyle.Render(t.renderSearch()))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (t *Terminal) renderNav() string {
	parts := []string{brandStyle.Render("PaperPilot")}
	items := []app.ViewName{app.ViewLogin, app.ViewRegister}
	if t.session.LoggedIn {
		items = []app.ViewName{app.ViewHome, app.ViewFavorites, app.ViewSearch}
	}
	for _, v := range items {
		label := strings.ToUpper(string(v[:1])) + string(v[1:])
		if v == t.active {
			parts = append(parts, navActive.Render(label))
		} else {
			parts = append(parts, navStyle.Render(label))
		}
	}
	if t.session.LoggedIn {
		parts = append(parts, welcomeStyle.Render("Welcome, "+t.session.Username))
	}
	return strings.Join(parts, "  ")
}

func (t *Terminal) renderContent() string {
	if t.placeholder != "" {
		return helperStyle.Render(t.placeholder)
	}
	var b strings.Builder
	switch t.view {
	case app.ViewHome:
		b.WriteString(headingStyle.Render("Latest articles"))
		b.WriteString("\n")
		t.renderCards(&b)
	case app.ViewFavorites:
		b.WriteString(headingStyle.Render("Favorites"))
		b.WriteString("\n")
		if t.exportURL != "" {
			b.WriteString(helperStyle.Render("Export all (BibTeX): "))
			b.WriteString(linkStyle.Render(t.exportURL))
			b.WriteString("\n")
		}
		t.renderCards(&b)
	case app.ViewSearch:
		b.WriteString(headingStyle.Render("Search arXiv"))
		b.WriteString("\n")
		b.WriteString(helperStyle.Render("Enter a query to find articles to import."))
	case app.ViewLogin:
		b.WriteString(headingStyle.Render("Log in"))
		if t.username != "" {
			b.WriteString("\n")
			b.WriteString(helperStyle.Render("Username: " + t.username))
		}
	case app.ViewRegister:
		b.WriteString(headingStyle.Render("Create an account"))
	case app.ViewDetail:
		t.renderDetail(&b)
	}
	return b.String()
}

func (t *Terminal) renderCards(b *strings.Builder) {
	if len(t.cards) == 0 {
		b.WriteString(helperStyle.Render(t.emptyText))
		return
	}
	for i, c := range t.cards {
		fmt.Fprintf(b, "%2d. %s %s %s\n", i+1, star(c.favorited), titleStyle.Render(c.title), helperStyle.Render("#"+c.id))
		if c.authors != "" {
			b.WriteString("    ")
			b.WriteString(authorStyle.Render(c.authors))
			b.WriteString("\n")
		}
	}
}

func (t *Terminal) renderDetail(b *strings.Builder) {
	if t.header == nil {
		return
	}
	h := t.header
	fmt.Fprintf(b, "%s %s\n", star(h.favorited), titleStyle.Render(t.wrap(h.title, 2)))
	if h.authors != "" {
		b.WriteString(authorStyle.Render(t.wrap(h.authors, 0)))
		b.WriteString("\n")
	}
	if h.published != "" {
		b.WriteString(helperStyle.Render("Published " + h.published))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var tabs []string
	for _, tab := range app.Tabs {
		if tab == t.tab {
			tabs = append(tabs, tabActive.Render(tabLabels[tab]))
		} else {
			tabs = append(tabs, tabStyle.Render(tabLabels[tab]))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if t.body != nil {
		t.renderBody(b, t.body)
	}
}

func (t *Terminal) renderBody(b *strings.Builder, m *tabModel) {
	for _, s := range m.sections {
		if s.Heading != "" {
			b.WriteString(headingStyle.Render(s.Heading))
			b.WriteString("\n")
		}
		if s.Text != "" {
			b.WriteString(t.wrap(s.Text, 0))
			b.WriteString("\n")
		}
		for _, bullet := range s.Bullets {
			b.WriteString("  • ")
			b.WriteString(t.wrap(bullet, 4))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	for _, img := range m.images {
		b.WriteString("  ")
		b.WriteString(linkStyle.Render(img))
		b.WriteString("\n")
	}
	for _, l := range m.transcript {
		if l.role == app.RoleQuestion {
			b.WriteString(questionStyle.Render("Q: " + t.wrap(l.text, 3)))
		} else {
			b.WriteString(answerStyle.Render("A: " + t.wrap(l.text, 5)))
		}
		b.WriteString("\n")
	}
	if m.empty != "" {
		b.WriteString(helperStyle.Render(t.wrap(m.empty, 0)))
		b.WriteString("\n")
	}
	if m.input {
		b.WriteString("\n")
		if m.inputEnabled {
			b.WriteString(helperStyle.Render("> Ask a question about this article"))
		} else {
			b.WriteString(disabledStyle.Render("> Waiting for the answer..."))
		}
		b.WriteString("\n")
	}
	if a := m.actions; a != nil {
		b.WriteString("\n")
		if a.PDFURL != "" {
			b.WriteString(buttonStyle.Render("Open PDF") + " " + linkStyle.Render(a.PDFURL) + "\n")
		}
		b.WriteString(buttonStyle.Render("Export citation") + " " + linkStyle.Render(a.CitationURL) + "\n")
		b.WriteString(buttonStyle.Render("Delete") + " " + helperStyle.Render("delete "+a.ArticleID) + "\n")
	}
}

func (t *Terminal) renderSettings() string {
	s := t.settings
	var b strings.Builder
	b.WriteString(headingStyle.Render("Settings"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "API key:            %s\n", maskKey(s.Form.APIKey))
	fmt.Fprintf(&b, "Model:              %s\n", s.Form.ModelName)
	fmt.Fprintf(&b, "Articles per fetch: %d\n", s.Form.FetchCount)
	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Keywords"))
	b.WriteString("\n")
	if len(t.keywords) == 0 {
		b.WriteString(helperStyle.Render("No keywords"))
	}
	for i, k := range t.keywords {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  • " + k)
	}
	return b.String()
}

func (t *Terminal) renderSearch() string {
	s := t.search
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Search: %q", s.Query)))
	b.WriteString("\n")
	switch {
	case s.Searching:
		b.WriteString(helperStyle.Render("Searching..."))
		return b.String()
	case s.Failed:
		b.WriteString(helperStyle.Render("Search failed."))
		return b.String()
	case len(s.Results) == 0:
		b.WriteString(helperStyle.Render("No matching articles found."))
		return b.String()
	}
	inner := t.width - 8
	for i, r := range s.Results {
		box := "[ ]"
		switch {
		case r.IsImported:
			box = disabledStyle.Render("[-]")
		case s.Selected[r.EntryID]:
			box = "[x]"
		}
		fmt.Fprintf(&b, "%s %2d. %s %s\n", box, i+1, titleStyle.Render(r.Title), helperStyle.Render(r.EntryID))
		if len(r.Authors) > 0 {
			b.WriteString("       " + authorStyle.Render(strings.Join(r.Authors, ", ")) + "\n")
		}
		if r.IsImported {
			b.WriteString("       " + disabledStyle.Render("imported") + "\n")
		}
		if r.Summary != "" {
			b.WriteString(indent(wordwrap.String(truncate(r.Summary, summaryPreview), inner), "       "))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	label := fmt.Sprintf("Import selected (%d)", t.selected)
	if t.importEnabled {
		b.WriteString(buttonStyle.Render(label))
	} else {
		b.WriteString(disabledStyle.Render(label))
	}
	return b.String()
}

// wrap word-wraps s to the screen width minus a hanging indent.
func (t *Terminal) wrap(s string, hang int) string {
	wrapped := wordwrap.String(s, t.width-hang)
	if hang == 0 {
		return wrapped
	}
	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", hang))
}

func star(on bool) string {
	if on {
		return favoriteStyle.Render("★")
	}
	return helperStyle.Render("☆")
}

func maskKey(key string) string {
	switch n := utf8.RuneCountInString(key); {
	case n == 0:
		return "(not set)"
	case n <= 8:
		return strings.Repeat("•", n)
	default:
		r := []rune(key)
		return string(r[:3]) + "…" + string(r[n-4:])
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
