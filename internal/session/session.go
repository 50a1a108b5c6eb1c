// Package session holds the authenticated-identity state that gates which
// views are reachable.
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

// Session is the client's view of who is logged in.
type Session struct {
	LoggedIn bool
	Username string
}

// Authenticator is the slice of the API the gate needs.
type Authenticator interface {
	Status(ctx context.Context) (api.AuthStatus, error)
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

// Gate owns the Session. All mutations go through its methods.
type Gate struct {
	auth   Authenticator
	logger *logrus.Logger

	mu sync.Mutex
	s  Session
}

// NewGate creates a logged-out gate.
func NewGate(auth Authenticator, logger *logrus.Logger) *Gate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{auth: auth, logger: logger}
}

// Current returns a copy of the session.
func (g *Gate) Current() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s
}

// LoggedIn reports whether a user is authenticated.
func (g *Gate) LoggedIn() bool {
	return g.Current().LoggedIn
}

// CheckStatus probes the API once. Any failure leaves the session logged
// out; it never fails open.
func (g *Gate) CheckStatus(ctx context.Context) Session {
	st, err := g.auth.Status(ctx)
	if err != nil {
		g.logger.WithError(err).Debug("session probe failed, assuming logged out")
		g.reset()
		return Session{}
	}
	if !st.IsLoggedIn {
		g.reset()
		return Session{}
	}
	return g.set(st.Username)
}

// Login authenticates; on success the session becomes logged in.
func (g *Gate) Login(ctx context.Context, username, password string) (Session, error) {
	name, err := g.auth.Login(ctx, username, password)
	if err != nil {
		return g.Current(), err
	}
	return g.set(name), nil
}

// Register creates an account. The session is left untouched.
func (g *Gate) Register(ctx context.Context, username, password string) error {
	return g.auth.Register(ctx, username, password)
}

// Logout ends the session. The gate is logged out afterwards whether or
// not the API call succeeded; the error is returned for logging only.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.auth.Logout(ctx)
	g.reset()
	return err
}

// Invalidate drops the session after the API rejected it. It reports
// whether the gate was logged in before the call.
func (g *Gate) Invalidate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	was := g.s.LoggedIn
	g.s = Session{}
	return was
}

func (g *Gate) set(username string) Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.s = Session{LoggedIn: true, Username: username}
	return g.s
}

func (g *Gate) reset() {
	g.mu.Lock()
	g.s = Session{}
	g.mu.Unlock()
}
