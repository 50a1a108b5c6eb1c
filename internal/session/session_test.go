package session

import (
	"context"
	"errors"
	"testing"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

type fakeAuth struct {
	status    api.AuthStatus
	statusErr error
	loginName string
	loginErr  error
	regErr    error
	logoutErr error
	logouts   int
}

func (f *fakeAuth) Status(ctx context.Context) (api.AuthStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	if f.loginName != "" {
		return f.loginName, nil
	}
	return username, nil
}

func (f *fakeAuth) Register(ctx context.Context, username, password string) error {
	return f.regErr
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logouts++
	return f.logoutErr
}

func TestCheckStatusLoggedIn(t *testing.T) {
	g := NewGate(&fakeAuth{status: api.AuthStatus{IsLoggedIn: true, Username: "alice"}}, nil)
	s := g.CheckStatus(context.Background())
	if !s.LoggedIn || s.Username != "alice" {
		t.Errorf("expected alice logged in, got %+v", s)
	}
}

func TestCheckStatusFailsClosed(t *testing.T) {
	g := NewGate(&fakeAuth{statusErr: api.ErrTransport}, nil)
	g.set("stale")

	s := g.CheckStatus(context.Background())
	if s.LoggedIn {
		t.Error("expected logged out after failed probe")
	}
	if g.LoggedIn() {
		t.Error("expected gate logged out after failed probe")
	}
}

func TestCheckStatusLoggedOut(t *testing.T) {
	g := NewGate(&fakeAuth{status: api.AuthStatus{IsLoggedIn: false}}, nil)
	if g.CheckStatus(context.Background()).LoggedIn {
		t.Error("expected logged out")
	}
}

func TestLoginSetsSession(t *testing.T) {
	g := NewGate(&fakeAuth{loginName: "alice"}, nil)
	s, err := g.Login(context.Background(), "ALICE", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (Session{LoggedIn: true, Username: "alice"}) {
		t.Errorf("unexpected session %+v", s)
	}
}

func TestLoginFailureKeepsSession(t *testing.T) {
	g := NewGate(&fakeAuth{loginErr: api.ErrUnauthorized}, nil)
	_, err := g.Login(context.Background(), "alice", "bad")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if g.LoggedIn() {
		t.Error("expected logged out after failed login")
	}
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	g := NewGate(&fakeAuth{}, nil)
	if err := g.Register(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.LoggedIn() {
		t.Error("register must not log the user in")
	}
}

func TestLogoutAlwaysLogsOut(t *testing.T) {
	auth := &fakeAuth{logoutErr: api.ErrTransport}
	g := NewGate(auth, nil)
	g.set("alice")

	err := g.Logout(context.Background())
	if err == nil {
		t.Error("expected logout error to be returned")
	}
	if g.LoggedIn() {
		t.Error("expected logged out even when the call failed")
	}
	if auth.logouts != 1 {
		t.Errorf("expected one logout call, got %d", auth.logouts)
	}
}

func TestInvalidateReportsPriorState(t *testing.T) {
	g := NewGate(&fakeAuth{}, nil)
	g.set("alice")
	if !g.Invalidate() {
		t.Error("expected first invalidate to report logged in")
	}
	if g.Invalidate() {
		t.Error("expected second invalidate to report logged out")
	}
}
