// Package apitest serves an in-memory version of the research assistant
// API for tests. Routes can be made to fail or block on demand so callers
// can exercise error and interleaving paths.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

const sessionCookie = "session"

type failure struct {
	status  int
	message string
}

type gate struct {
	arrived  chan struct{}
	release  chan struct{}
	signaled bool
	opened   bool
}

// open must be called with Server.mu held.
func (g *gate) open() {
	if !g.opened {
		g.opened = true
		close(g.release)
	}
}

// Server is a fake API backed by in-memory state.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]string
	sessions map[string]string
	articles map[string]*api.Article
	order    []string
	nextID   int
	keywords []string
	settings api.Settings
	corpus   []api.SearchResult
	hits     map[string]int
	failures map[string][]failure
	gates    map[string]*gate
	tokens   int
}

// New starts a Server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]string),
		sessions: make(map[string]string),
		articles: make(map[string]*api.Article),
		nextID:   1,
		hits:     make(map[string]int),
		failures: make(map[string][]failure),
		gates:    make(map[string]*gate),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.ReleaseAll()
		s.Close()
	})
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	s.handle(r, http.MethodGet, "/api/auth/status", false, s.handleStatus)
	s.handle(r, http.MethodPost, "/api/auth/login", false, s.handleLogin)
	s.handle(r, http.MethodPost, "/api/auth/register", false, s.handleRegister)
	s.handle(r, http.MethodPost, "/api/auth/logout", true, s.handleLogout)

	s.handle(r, http.MethodGet, "/api/user/settings", true, s.handleGetSettings)
	s.handle(r, http.MethodPost, "/api/user/settings", true, s.handleSaveSettings)

	s.handle(r, http.MethodGet, "/api/keywords", true, s.handleKeywords)
	s.handle(r, http.MethodPost, "/api/keywords", true, s.handleAddKeyword)
	s.handle(r, http.MethodDelete, "/api/keywords/{keyword}", true, s.handleDeleteKeyword)

	s.handle(r, http.MethodGet, "/api/articles/latest", true, s.handleLatest)
	s.handle(r, http.MethodGet, "/api/articles/favorites", true, s.handleFavorites)
	s.handle(r, http.MethodGet, "/api/articles/favorites/export/bibtex", true, s.handleExportFavorites)
	s.handle(r, http.MethodGet, "/api/articles/search", true, s.handleSearch)
	s.handle(r, http.MethodPost, "/api/articles/batch-import", true, s.handleBatchImport)
	s.handle(r, http.MethodPost, "/api/articles/fetch", true, s.handleFetch)
	s.handle(r, http.MethodGet, "/api/articles/{id}", true, s.handleArticle)
	s.handle(r, http.MethodDelete, "/api/articles/{id}", true, s.handleDeleteArticle)
	s.handle(r, http.MethodPost, "/api/articles/{id}/favorite", true, s.handleToggleFavorite)
	s.handle(r, http.MethodPost, "/api/articles/{id}/ask", true, s.handleAsk)
	s.handle(r, http.MethodGet, "/api/articles/{id}/export/bibtex", true, s.handleExportArticle)

	r.Get("/media/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG"))
	})
	return r
}

// handle registers a route wrapped with hit counting, scripted failures,
// gates and the login check. The route key is "METHOD pattern".
func (s *Server) handle(r chi.Router, method, pattern string, protected bool, h http.HandlerFunc) {
	key := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.hits[key]++
		var f *failure
		if queued := s.failures[key]; len(queued) > 0 {
			f = &queued[0]
			s.failures[key] = queued[1:]
		}
		g := s.gates[key]
		if g != nil && !g.signaled {
			g.signaled = true
			close(g.arrived)
		}
		s.mu.Unlock()

		if g != nil {
			select {
			case <-g.release:
			case <-req.Context().Done():
				return
			}
		}
		if f != nil {
			writeError(w, f.status, f.message)
			return
		}
		if protected && s.currentUser(req) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h(w, req)
	}))
}

// --- scripting ---

// AddUser registers an account.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// AddArticle stores an article and returns its assigned ID.
func (s *Server) AddArticle(a api.Article) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addArticleLocked(a)
}

func (s *Server) addArticleLocked(a api.Article) string {
	id := a.ID.String()
	if id == "" {
		id = strconv.Itoa(s.nextID)
		s.nextID++
	}
	a.ID = api.ArticleID(id)
	if a.Authors == nil {
		a.Authors = []string{}
	}
	s.articles[id] = &a
	s.order = append([]string{id}, s.order...)
	return id
}

// Article returns a copy of a stored article.
func (s *Server) Article(id string) (api.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return api.Article{}, false
	}
	return *a, true
}

// SetCorpus sets the remote search corpus.
func (s *Server) SetCorpus(results []api.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = append([]api.SearchResult(nil), results...)
}

// SetKeywords replaces the keyword set.
func (s *Server) SetKeywords(keywords ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = append([]string(nil), keywords...)
}

// SetSettings replaces the stored settings.
func (s *Server) SetSettings(st api.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
}

// StoredSettings returns the stored settings.
func (s *Server) StoredSettings() api.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// RevokeSessions invalidates every session, as if they expired.
func (s *Server) RevokeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// FailNext makes the next request to a route key fail with the status.
func (s *Server) FailNext(key string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

// Block holds requests to a route key until release is called. The
// returned channel closes when the first request arrives.
func (s *Server) Block(key string) (arrived <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.gates[key] = g
	return g.arrived, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gates[key] == g {
			delete(s.gates, key)
		}
		g.open()
	}
}

// ReleaseAll opens every gate.
func (s *Server) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.gates {
		g.open()
	}
	s.gates = make(map[string]*gate)
}

// Hits returns how many requests a route key received.
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// --- handlers ---

func (s *Server) currentUser(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c.Value]
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if user := s.currentUser(r); user != "" {
		writeJSON(w, http.StatusOK, api.AuthStatus{IsLoggedIn: true, Username: user})
		return
	}
	writeJSON(w, http.StatusOK, api.AuthStatus{IsLoggedIn: false})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	pw, ok := s.users[c.Username]
	if !ok || pw != c.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	s.tokens++
	token := fmt.Sprintf("tok-%d", s.tokens)
	s.sessions[token] = c.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "username": c.Username})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Username == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[c.Username]; exists {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	s.users[c.Username] = c.Password
	writeJSON(w, http.StatusCreated, map[string]string{"status": "success"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.StoredSettings())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var st api.Settings
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetSettings(st)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]string{}, s.keywords...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Keyword string `json:"keyword"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	kw := strings.TrimSpace(body.Keyword)
	dup := false
	for _, k := range s.keywords {
		if k == kw {
			dup = true
		}
	}
	if kw != "" && !dup {
		s.keywords = append(s.keywords, kw)
	}
	out := append([]string{}, s.keywords...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	kw := chi.URLParam(r, "keyword")
	s.mu.Lock()
	kept := s.keywords[:0]
	for _, k := range s.keywords {
		if k != kw {
			kept = append(kept, k)
		}
	}
	s.keywords = kept
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) listArticles(favoritesOnly bool) []api.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Article{}
	for _, id := range s.order {
		a := s.articles[id]
		if favoritesOnly && !a.IsFavorited {
			continue
		}
		out = append(out, api.Article{ID: a.ID, Title: a.Title, Authors: a.Authors, IsFavorited: a.IsFavorited})
	}
	return out
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.listArticles(false))
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.listArticles(true))
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	a, ok := s.Article(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if a.QnaHistory == nil {
		a.QnaHistory = []api.QnA{}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	delete(s.articles, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	a, ok := s.articles[id]
	favorited := false
	if ok {
		a.IsFavorited = !a.IsFavorited
		favorited = a.IsFavorited
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "is_favorited": favorited})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Question string `json:"question"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	if body.Question == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	s.mu.Lock()
	a, ok := s.articles[id]
	answer := "Answer to: " + body.Question
	if ok {
		a.QnaHistory = append(a.QnaHistory, api.QnA{Question: body.Question, Answer: answer})
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	s.mu.Lock()
	out := []api.SearchResult{}
	for _, res := range s.corpus {
		if strings.Contains(strings.ToLower(res.Title+" "+res.Summary), query) {
			out = append(out, res)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBatchImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EntryIDs []string `json:"entry_ids"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	if len(body.EntryIDs) == 0 {
		writeError(w, http.StatusBadRequest, "entry_ids list is required")
		return
	}
	wanted := make(map[string]bool, len(body.EntryIDs))
	for _, id := range body.EntryIDs {
		wanted[id] = true
	}
	s.mu.Lock()
	for i := range s.corpus {
		res := &s.corpus[i]
		if wanted[res.EntryID] && !res.IsImported {
			res.IsImported = true
			s.addArticleLocked(api.Article{Title: res.Title, Authors: res.Authors, OriginalSummary: res.Summary})
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Batch import job started."})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	kws := append([]string(nil), s.keywords...)
	sort.Strings(kws)
	for _, kw := range kws {
		s.addArticleLocked(api.Article{Title: "Recent work on " + kw, Authors: []string{"A. Researcher"}})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "New articles fetch job started."})
}

func (s *Server) handleExportArticle(w http.ResponseWriter, r *http.Request) {
	a, ok := s.Article(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	key := "article" + a.ID.String()
	w.Header().Set("Content-Type", "application/x-bibtex")
	w.Header().Set("Content-Disposition", "attachment; filename="+key+".bib")
	fmt.Fprintf(w, "@article{%s,\n  author = {%s},\n  title = {%s}\n}\n", key, strings.Join(a.Authors, " and "), a.Title)
}

func (s *Server) handleExportFavorites(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-bibtex")
	w.Header().Set("Content-Disposition", "attachment; filename=favorites.bib")
	for _, a := range s.listArticles(true) {
		fmt.Fprintf(w, "@article{article%s,\n  title = {%s}\n}\n", a.ID, a.Title)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
