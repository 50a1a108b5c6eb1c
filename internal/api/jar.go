package api

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// CookieStore persists the API host's cookies between runs.
type CookieStore interface {
	LoadCookies(host string) ([]*http.Cookie, error)
	SaveCookies(host string, cookies []*http.Cookie) error
	ClearCookies(host string) error
}

// persistentJar is a cookie jar that mirrors the API host's cookies into a
// CookieStore whenever the server sets or clears one.
type persistentJar struct {
	*cookiejar.Jar
	base   *url.URL
	store  CookieStore
	logger *logrus.Logger
	mu     sync.Mutex
}

func newPersistentJar(base *url.URL) (*persistentJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &persistentJar{Jar: jar, base: base, logger: logrus.StandardLogger()}, nil
}

func (j *persistentJar) restore() error {
	if j.store == nil {
		return nil
	}
	cookies, err := j.store.LoadCookies(j.base.Host)
	if err != nil {
		return err
	}
	if len(cookies) > 0 {
		j.Jar.SetCookies(j.base, cookies)
	}
	return nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
	if j.store == nil || u.Host != j.base.Host {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	// Failing to persist only costs a re-login on the next run.
	if err := j.store.SaveCookies(j.base.Host, j.Jar.Cookies(j.base)); err != nil {
		j.logger.WithError(err).Warn("could not persist session cookies")
	}
}

// forget drops the persisted cookies so a session the server rejected is
// not restored on the next run.
func (j *persistentJar) forget() {
	if j.store == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.store.ClearCookies(j.base.Host); err != nil {
		j.logger.WithError(err).Warn("could not clear session cookies")
	}
}
