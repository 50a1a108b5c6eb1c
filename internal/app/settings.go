package app

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

// Defaults filled into a settings record the server left blank.
const (
	DefaultModelName  = "deepseek-chat"
	DefaultFetchCount = 5
)

const settingsSavedText = "Settings saved!"

// openSettings fetches settings and keywords in parallel, then shows the
// overlay. If either call fails the overlay stays closed.
func (c *Controller) openSettings(ctx context.Context) error {
	var (
		settings api.Settings
		keywords []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.api.Settings(gctx)
		settings = s
		return err
	})
	g.Go(func() error {
		k, err := c.api.Keywords(gctx)
		keywords = k
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if settings.ModelName == "" {
		settings.ModelName = DefaultModelName
	}
	if settings.FetchCount == 0 {
		settings.FetchCount = DefaultFetchCount
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Settings = SettingsState{Open: true, Form: settings, Keywords: keywords}
	c.surface.PresentSettings(c.state.Settings)
	c.surface.PresentKeywords(keywords)
	return nil
}

func (c *Controller) editSettings(s api.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Settings.Form = s
	if c.state.Settings.Open {
		c.surface.PresentSettings(c.state.Settings)
	}
	return nil
}

// saveSettings submits the form wholesale. On failure the overlay stays
// open with the edits intact.
func (c *Controller) saveSettings(ctx context.Context) error {
	c.mu.Lock()
	form := c.state.Settings.Form
	c.mu.Unlock()

	if err := c.api.SaveSettings(ctx, form); err != nil {
		return err
	}
	c.notes.Success(settingsSavedText)
	c.closeSettings()
	return nil
}

func (c *Controller) closeSettings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Settings = SettingsState{}
	c.surface.HideSettings()
}

func (c *Controller) addKeyword(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	if err := c.api.AddKeyword(ctx, keyword); err != nil {
		return err
	}
	return c.refreshKeywords(ctx)
}

func (c *Controller) deleteKeyword(ctx context.Context, keyword string) error {
	if keyword == "" {
		return nil
	}
	if err := c.api.DeleteKeyword(ctx, keyword); err != nil {
		return err
	}
	return c.refreshKeywords(ctx)
}

// refreshKeywords re-fetches the whole keyword set instead of patching the
// local copy.
func (c *Controller) refreshKeywords(ctx context.Context) error {
	keywords, err := c.api.Keywords(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Settings.Keywords = keywords
	c.surface.PresentKeywords(keywords)
	return nil
}
