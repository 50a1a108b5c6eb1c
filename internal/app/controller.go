// Package app is the client application state machine: the view router,
// the detail tabs, the settings and search overlays and the optimistic
// updaters, all driven by typed actions.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/notify"
	"github.com/TobiSchelling/PaperPilot/internal/session"
)

const (
	prefDetailTab = "detail_tab"
	prefUsername  = "last_username"
)

// ErrNoQuestionInput is returned when a question is asked outside the qna
// tab of an open article.
var ErrNoQuestionInput = errors.New("no question input: open an article on the qna tab")

// API is the slice of the gateway the controller calls.
type API interface {
	LatestArticles(ctx context.Context) ([]api.Article, error)
	FavoriteArticles(ctx context.Context) ([]api.Article, error)
	Article(ctx context.Context, id string) (*api.Article, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Ask(ctx context.Context, id, question string) (string, error)
	DeleteArticle(ctx context.Context, id string) error
	Keywords(ctx context.Context) ([]string, error)
	AddKeyword(ctx context.Context, keyword string) error
	DeleteKeyword(ctx context.Context, keyword string) error
	Search(ctx context.Context, query string) ([]api.SearchResult, error)
	BatchImport(ctx context.Context, entryIDs []string) error
	FetchOnDemand(ctx context.Context) error
	Settings(ctx context.Context) (api.Settings, error)
	SaveSettings(ctx context.Context, s api.Settings) error

	MediaURL(p string) string
	CitationURL(id string) string
	FavoritesExportURL() string
}

// Notifier receives the controller's own confirmations.
type Notifier interface {
	Info(message string) notify.Notification
	Success(message string) notify.Notification
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Preferences is persistent UI state.
type Preferences interface {
	Preference(key string) (string, error)
	SetPreference(key, value string) error
}

// Options configures a Controller. API, Gate, Surface and Notifier are
// required.
type Options struct {
	API      API
	Gate     *session.Gate
	Surface  Surface
	Notifier Notifier
	Confirm  Confirmer
	Prefs    Preferences
	Logger   *logrus.Logger
}

// Controller owns State and applies actions to it. It never holds its lock
// across a network call.
type Controller struct {
	api     API
	gate    *session.Gate
	surface Surface
	notes   Notifier
	confirm Confirmer
	prefs   Preferences
	logger  *logrus.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	cancelLoad context.CancelFunc
	forcedGen  uint64
	searchGen  uint64

	fetches singleflight.Group
}

// New creates a Controller. Call Start before dispatching.
func New(opts Options) (*Controller, error) {
	if opts.API == nil || opts.Gate == nil || opts.Surface == nil || opts.Notifier == nil {
		return nil, errors.New("app: API, Gate, Surface and Notifier are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller{
		api:     opts.API,
		gate:    opts.Gate,
		surface: opts.Surface,
		notes:   opts.Notifier,
		confirm: opts.Confirm,
		prefs:   opts.Prefs,
		logger:  logger,
		state:   State{Tab: TabSummary},
	}, nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Start restores the saved tab, probes the session and navigates home,
// which lands on login when logged out.
func (c *Controller) Start(ctx context.Context) error {
	c.Restore(ctx)
	return c.navigate(ctx, ViewHome, "")
}

// Restore is Start without the initial navigation, for callers that
// dispatch their own first action.
func (c *Controller) Restore(ctx context.Context) session.Session {
	if c.prefs != nil {
		saved, err := c.prefs.Preference(prefDetailTab)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to read saved tab")
		} else if t := TabName(saved); t.Valid() {
			c.mu.Lock()
			c.state.Tab = t
			c.mu.Unlock()
		}
	}
	s := c.gate.CheckStatus(ctx)
	c.mu.Lock()
	c.state.Session = s
	c.mu.Unlock()
	return s
}

// HandleUnauthorized is the gateway's 401 hook. It invalidates the session
// and forces one navigation to login. Concurrent 401s racing in after that
// navigation are absorbed by it.
func (c *Controller) HandleUnauthorized() {
	c.mu.Lock()
	wasLoggedIn := c.gate.Invalidate()
	if !wasLoggedIn && c.state.View == ViewLogin && c.forcedGen == c.generation {
		c.mu.Unlock()
		return
	}
	c.closeOverlaysLocked()
	t := c.beginLocked(context.Background(), ViewLogin, "")
	c.forcedGen = t.gen
	c.mu.Unlock()
	c.logger.WithField("was_logged_in", wasLoggedIn).Info("Session rejected by server, returning to login")
	_ = c.run(t)
}

// Dispatch applies one action. Errors the gateway already reported to the
// user are still returned so callers can branch on them.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	c.logger.WithField("action", fmt.Sprintf("%T", a)).Debug("dispatch")
	switch a := a.(type) {
	case Navigate:
		if a.View == ViewDetail {
			return c.navigate(ctx, ViewDetail, c.Snapshot().ArticleID)
		}
		return c.navigate(ctx, a.View, "")
	case OpenArticle:
		return c.navigate(ctx, ViewDetail, a.ID)
	case Back:
		return c.back(ctx)
	case SelectTab:
		return c.selectTab(a.Tab)
	case Login:
		return c.login(ctx, a.Username, a.Password)
	case Register:
		return c.register(ctx, a.Username, a.Password)
	case Logout:
		return c.logout(ctx)
	case FetchNow:
		return c.fetchNow(ctx)
	case ToggleFavorite:
		return c.toggleFavorite(ctx, a.ID)
	case DeleteArticle:
		return c.deleteArticle(ctx, a.ID, a.Confirmed)
	case AskQuestion:
		return c.askQuestion(ctx, a.Question)
	case OpenSettings:
		return c.openSettings(ctx)
	case EditSettings:
		return c.editSettings(a.Settings)
	case SaveSettings:
		return c.saveSettings(ctx)
	case CloseSettings:
		c.closeSettings()
		return nil
	case AddKeyword:
		return c.addKeyword(ctx, a.Keyword)
	case DeleteKeyword:
		return c.deleteKeyword(ctx, a.Keyword)
	case Search:
		return c.search(ctx, a.Query)
	case SetSelected:
		c.setSelected(a.EntryID, a.Checked)
		return nil
	case BatchImport:
		return c.batchImport(ctx)
	case CloseSearch:
		c.closeSearch()
		return nil
	default:
		return fmt.Errorf("app: unsupported action %T", a)
	}
}

func (c *Controller) closeOverlaysLocked() {
	if c.state.Settings.Open {
		c.state.Settings = SettingsState{}
		c.surface.HideSettings()
	}
	if c.state.Search.Open {
		c.state.Search = SearchState{}
		c.searchGen++
		c.surface.HideSearch()
	}
}

func (c *Controller) showBlocking(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Blocking = message
	c.surface.ShowBlocking(message)
}

func (c *Controller) hideBlocking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Blocking = ""
	c.surface.HideBlocking()
}
