package app

import (
	"context"
	"errors"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

const (
	loadingText    = "Loading..."
	loadFailedText = "Could not load this view."
)

// transition is one navigation between its bookkeeping step and its
// presentation step.
type transition struct {
	gen    uint64
	view   ViewName
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Controller) navigate(ctx context.Context, view ViewName, id string) error {
	c.mu.Lock()
	t := c.beginLocked(ctx, view, id)
	c.mu.Unlock()
	return c.run(t)
}

// beginLocked applies the auth guard and navigation bookkeeping, cancels
// the superseded load and shows the loading placeholder.
func (c *Controller) beginLocked(parent context.Context, view ViewName, id string) transition {
	if view.RequiresAuth() && !c.gate.LoggedIn() {
		view, id = ViewLogin, ""
	}
	if view == ViewDetail && id == "" {
		view = ViewHome
	}

	c.state.Session = c.gate.Current()
	c.state.View = view
	switch {
	case view.IsTopLevel():
		c.state.ActiveNav = view
	case view == ViewLogin || view == ViewRegister:
		c.state.ActiveNav = ""
	}
	if view == ViewDetail {
		c.state.ArticleID = id
	}
	c.state.Article = nil
	c.state.Articles = nil

	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	c.generation++
	ctx, cancel := context.WithCancel(parent)
	c.cancelLoad = cancel

	c.logger.WithField("view", view).WithField("id", id).Debug("navigate")
	c.surface.SetNavigation(c.state.Session, c.state.ActiveNav)
	c.surface.ShowPlaceholder(loadingText)
	return transition{gen: c.generation, view: view, id: id, ctx: ctx, cancel: cancel}
}

// run loads the view and presents it unless a newer navigation started in
// the meantime.
func (c *Controller) run(t transition) error {
	defer t.cancel()
	data, err := c.Load(t.ctx, t.view, t.id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.gen != c.generation {
		c.logger.WithField("view", t.view).Debug("discarding superseded load")
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	if err != nil {
		c.surface.ShowPlaceholder(loadFailedText)
		return err
	}
	c.presentLocked(data)
	return nil
}

func (c *Controller) presentLocked(data ViewData) {
	data.Tab = c.state.Tab
	c.state.Articles = append([]api.Article(nil), data.Articles...)
	if data.Article != nil {
		a := cloneArticle(*data.Article)
		c.state.Article = &a
	}
	c.surface.Present(data)
	if data.View != ViewDetail || c.state.Article == nil {
		return
	}
	c.surface.RenderMath(RegionContent)
	c.surface.PresentTab(BuildTabBody(c.state.Tab, c.state.Article, c.api))
	c.surface.RenderMath(RegionTab)
	c.showPendingLocked()
}

// showPendingLocked puts a question still in flight back on a freshly
// rendered qna tab of the article it was asked about.
func (c *Controller) showPendingLocked() {
	if c.state.Tab != TabQna || !c.state.Qna.pendingFor(c.state.ArticleID) {
		return
	}
	c.surface.AppendTranscript(RoleQuestion, c.state.Qna.Pending)
	c.surface.SetQuestionInput(false, false)
}

func (c *Controller) back(ctx context.Context) error {
	c.mu.Lock()
	view := c.state.ActiveNav
	c.mu.Unlock()
	if view == "" {
		view = ViewHome
	}
	return c.navigate(ctx, view, "")
}

// refresh re-navigates to whatever is currently displayed.
func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	view, id := c.state.View, c.state.ArticleID
	c.mu.Unlock()
	if view == "" {
		view = ViewHome
	}
	return c.navigate(ctx, view, id)
}
