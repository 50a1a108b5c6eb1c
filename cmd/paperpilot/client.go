package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/app"
	"github.com/TobiSchelling/PaperPilot/internal/config"
	"github.com/TobiSchelling/PaperPilot/internal/database"
	"github.com/TobiSchelling/PaperPilot/internal/notify"
	"github.com/TobiSchelling/PaperPilot/internal/screen"
	"github.com/TobiSchelling/PaperPilot/internal/session"
)

// store is what the client keeps locally between runs.
type store interface {
	api.CookieStore
	app.Preferences
}

// client wires one controller to the API, the local store and a terminal.
type client struct {
	api   *api.Client
	notes *notify.Center
	term  *screen.Terminal
	ctrl  *app.Controller
}

type clientOptions struct {
	config  *config.Config
	store   store
	logger  *logrus.Logger
	confirm app.Confirmer
	// spinner receives the blocking indicator animation, nil for none.
	spinner io.Writer
}

func newClient(opts clientOptions) (*client, error) {
	c := opts.config
	notes := notify.NewCenter(c.Notifications.TTL, c.Notifications.Max)
	apiOpts := []api.Option{
		api.WithTimeout(c.API.Timeout),
		api.WithNotifier(notes),
		api.WithLogger(opts.logger),
		api.WithUserAgent(c.API.UserAgent),
	}
	if opts.store != nil {
		apiOpts = append(apiOpts, api.WithCookieStore(opts.store))
	}
	apiClient, err := api.New(c.API.BaseURL, apiOpts...)
	if err != nil {
		return nil, err
	}

	term := screen.New(screen.Options{Width: c.Display.Width, Math: c.Display.Math, Spinner: opts.spinner})
	ctrlOpts := app.Options{
		API:      apiClient,
		Gate:     session.NewGate(apiClient, opts.logger),
		Surface:  term,
		Notifier: notes,
		Confirm:  opts.confirm,
		Logger:   opts.logger,
	}
	if opts.store != nil {
		ctrlOpts.Prefs = opts.store
	}
	ctrl, err := app.New(ctrlOpts)
	if err != nil {
		return nil, err
	}
	apiClient.SetUnauthorizedHandler(ctrl.HandleUnauthorized)
	return &client{api: apiClient, notes: notes, term: term, ctrl: ctrl}, nil
}

// dispatch runs actions in order and stops at the first failure.
func (c *client) dispatch(ctx context.Context, actions ...app.Action) error {
	for _, a := range actions {
		if err := c.ctrl.Dispatch(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// flush prints pending notifications, then the screen.
func (c *client) flush(w io.Writer) {
	screen.PrintNotifications(w, c.notes.Drain())
	fmt.Fprint(w, c.term.Render())
}

// settle maps an action error to what the CLI reports. A rejected session
// was already answered by the navigation to login.
func settle(err error) error {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// withClient opens the local store, builds a client, runs fn and prints
// the resulting screen.
func withClient(ctx context.Context, out io.Writer, confirm app.Confirmer, fn func(context.Context, *client) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := newClient(clientOptions{
		config:  cfg,
		store:   db,
		logger:  logger,
		confirm: confirm,
		spinner: spinnerOutput(),
	})
	if err != nil {
		return err
	}
	c.ctrl.Restore(ctx)
	err = settle(fn(ctx, c))
	c.flush(out)
	return err
}

var _ store = (*database.DB)(nil)
