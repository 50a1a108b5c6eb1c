package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/PaperPilot/internal/notify"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *notify.Center) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	center := notify.NewCenter(0, 50)
	c, err := New(srv.URL, WithNotifier(center))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, center
}

func TestCallEmptyBodyResolvesToEmptyObject(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := c.Call(context.Background(), http.MethodDelete, "/api/articles/1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("expected {}, got %s", raw)
	}
	if n := len(center.Active()); n != 0 {
		t.Errorf("expected no notifications, got %d", n)
	}
}

func TestCallJSONContentTypeWithEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	})

	raw, err := c.Call(context.Background(), http.MethodPost, "/api/articles/fetch", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("expected {}, got %s", raw)
	}
}

func TestCallNonJSONResolvesToEmptyObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("deleted"))
	})

	raw, err := c.Call(context.Background(), http.MethodDelete, "/api/keywords/x", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("expected {}, got %s", raw)
	}
}

func TestCallParsesJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON request body")
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"answer":"42"}`))
	})

	raw, err := c.Call(context.Background(), http.MethodPost, "/api/articles/1/ask", map[string]string{"question": "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]string
	json.Unmarshal(raw, &out)
	if out["answer"] != "42" {
		t.Errorf("expected answer 42, got %v", out)
	}
}

func TestErrorPayloadReportedOnce(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Username already exists"}`))
	})

	err := c.Register(context.Background(), "alice", "pw")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("HTTP error must not match ErrTransport")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusBadRequest {
		t.Fatalf("expected RequestError with status 400, got %v", err)
	}

	got := center.Drain()
	if len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(got))
	}
	if !strings.Contains(got[0].Message, "Username already exists") {
		t.Errorf("expected server message in notification, got %q", got[0].Message)
	}
}

func TestNonJSONErrorUsesStatus(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.LatestArticles(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	got := center.Drain()
	if len(got) != 1 || !strings.Contains(got[0].Message, "502") {
		t.Errorf("expected one notification mentioning 502, got %+v", got)
	}
}

func TestUnauthorizedRunsHandlerWithoutNotification(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	})
	calls := 0
	c.SetUnauthorizedHandler(func() { calls++ })

	_, err := c.Keywords(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if errors.Is(err, ErrRequestFailed) {
		t.Error("ErrUnauthorized must not match ErrRequestFailed")
	}
	if calls != 1 {
		t.Errorf("expected handler called once, got %d", calls)
	}
	if n := len(center.Active()); n != 0 {
		t.Errorf("expected no notification for 401, got %d", n)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	center := notify.NewCenter(0, 10)
	c, err := New(url, WithNotifier(center))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = c.Status(context.Background())
	if !errors.Is(err, ErrTransport) || !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if n := len(center.Active()); n != 1 {
		t.Errorf("expected one notification, got %d", n)
	}
}

func TestCancelledCallIsSilent(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FavoriteArticles(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := len(center.Active()); n != 0 {
		t.Errorf("expected no notification for cancelled call, got %d", n)
	}
}

func TestInvalidJSONIsRequestFailure(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": `))
	})

	_, err := c.Article(context.Background(), "1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if n := len(center.Active()); n != 1 {
		t.Errorf("expected one notification, got %d", n)
	}
}

func TestArticleIDAcceptsNumbersAndStrings(t *testing.T) {
	var a struct {
		ID ArticleID `json:"id"`
	}
	json.Unmarshal([]byte(`{"id": 42}`), &a)
	if a.ID != "42" {
		t.Errorf("expected 42, got %q", a.ID)
	}
	json.Unmarshal([]byte(`{"id": "abc"}`), &a)
	if a.ID != "abc" {
		t.Errorf("expected abc, got %q", a.ID)
	}
}

func TestFlexIntAcceptsStrings(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"api_key":"k","fetch_count":"7"}`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FetchCount != 7 {
		t.Errorf("expected 7, got %d", s.FetchCount)
	}
	if err := json.Unmarshal([]byte(`{"fetch_count":3}`), &s); err != nil || s.FetchCount != 3 {
		t.Errorf("expected 3, got %d (%v)", s.FetchCount, err)
	}
}

type memoryCookieStore struct {
	mu       sync.Mutex
	cookies  map[string][]*http.Cookie
	failSave bool
}

func (m *memoryCookieStore) LoadCookies(host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[host], nil
}

func (m *memoryCookieStore) SaveCookies(host string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("disk full")
	}
	m.cookies[host] = cookies
	return nil
}

func (m *memoryCookieStore) ClearCookies(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, host)
	return nil
}

func (m *memoryCookieStore) stored(host string) []*http.Cookie {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[host]
}

func TestCookiesPersistAcrossClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
			w.Write([]byte(`{"username":"alice"}`))
		case "/api/auth/status":
			if c, err := r.Cookie("session"); err == nil && c.Value == "tok" {
				w.Write([]byte(`{"isLoggedIn":true,"username":"alice"}`))
				return
			}
			w.Write([]byte(`{"isLoggedIn":false}`))
		}
	}))
	defer srv.Close()

	store := &memoryCookieStore{cookies: make(map[string][]*http.Cookie)}
	first, _ := New(srv.URL, WithCookieStore(store))
	if _, err := first.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	second, _ := New(srv.URL, WithCookieStore(store))
	st, err := second.Status(context.Background())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !st.IsLoggedIn || st.Username != "alice" {
		t.Errorf("expected restored session, got %+v", st)
	}
}

func TestUnauthorizedForgetsStoredCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &memoryCookieStore{cookies: make(map[string][]*http.Cookie)}
	u, _ := url.Parse(srv.URL)
	store.cookies[u.Host] = []*http.Cookie{{Name: "session", Value: "stale"}}

	c, err := New(srv.URL, WithCookieStore(store), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := c.LatestArticles(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := store.stored(u.Host); len(got) != 0 {
		t.Errorf("expected the rejected cookie forgotten, got %v", got)
	}
}

func TestCookieSaveFailureIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"username":"alice"}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	store := &memoryCookieStore{cookies: make(map[string][]*http.Cookie), failSave: true}
	c, err := New(srv.URL, WithCookieStore(store), WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := c.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(logs.String(), "could not persist session cookies") || !strings.Contains(logs.String(), "disk full") {
		t.Errorf("expected a warning about the failed save, got %q", logs.String())
	}
}

func TestLinks(t *testing.T) {
	c, err := New("http://127.0.0.1:5006/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.MediaURL("/2401.0001/fig1.png"); got != "http://127.0.0.1:5006/media/2401.0001/fig1.png" {
		t.Errorf("unexpected media URL %q", got)
	}
	if got := c.CitationURL("42"); got != "http://127.0.0.1:5006/api/articles/42/export/bibtex" {
		t.Errorf("unexpected citation URL %q", got)
	}
	if got := c.FavoritesExportURL(); !strings.HasSuffix(got, "/api/articles/favorites/export/bibtex") {
		t.Errorf("unexpected export URL %q", got)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api"); err == nil {
		t.Error("expected error for relative base URL")
	}
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	c, center := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-bibtex")
		w.Header().Set("Content-Disposition", "attachment; filename=2401.0001.bib")
		w.Write([]byte("@article{x}"))
	})

	var buf bytes.Buffer
	name, err := c.Download(context.Background(), c.CitationURL("1"), &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "2401.0001.bib" {
		t.Errorf("expected filename from header, got %q", name)
	}
	if buf.String() != "@article{x}" {
		t.Errorf("unexpected body %q", buf.String())
	}
	if len(center.Active()) != 0 {
		t.Error("downloads must not notify")
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
