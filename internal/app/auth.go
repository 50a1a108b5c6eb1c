package app

import (
	"context"
	"errors"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

const registeredText = "Registration successful! Please log in."

func (c *Controller) login(ctx context.Context, username, password string) error {
	// A rejected attempt re-renders the form even right after a forced logout.
	c.mu.Lock()
	c.forcedGen = 0
	c.mu.Unlock()
	if _, err := c.gate.Login(ctx, username, password); err != nil {
		return err
	}
	if c.prefs != nil {
		if err := c.prefs.SetPreference(prefUsername, username); err != nil {
			c.logger.WithError(err).Warn("Failed to save username")
		}
	}
	return c.navigate(ctx, ViewHome, "")
}

func (c *Controller) register(ctx context.Context, username, password string) error {
	if err := c.gate.Register(ctx, username, password); err != nil {
		return err
	}
	c.notes.Success(registeredText)
	return c.navigate(ctx, ViewLogin, "")
}

// logout always ends logged out on the login view. A 401 from the server
// already navigated there.
func (c *Controller) logout(ctx context.Context) error {
	err := c.gate.Logout(ctx)
	c.mu.Lock()
	c.closeOverlaysLocked()
	c.mu.Unlock()
	if errors.Is(err, api.ErrUnauthorized) {
		return nil
	}
	if err != nil {
		c.logger.WithError(err).Debug("logout call failed, resetting locally")
	}
	return c.navigate(ctx, ViewLogin, "")
}
