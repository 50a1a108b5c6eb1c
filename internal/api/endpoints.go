package api

import (
	"context"
	"net/http"
	"net/url"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Status probes the current session.
func (c *Client) Status(ctx context.Context) (AuthStatus, error) {
	var st AuthStatus
	err := c.do(ctx, http.MethodGet, "/api/auth/status", nil, &st)
	return st, err
}

// Login authenticates and returns the canonical username.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &resp); err != nil {
		return "", err
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return resp.Username, nil
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", credentials{username, password}, nil)
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// LatestArticles lists the user's articles, newest first.
func (c *Client) LatestArticles(ctx context.Context) ([]Article, error) {
	var out []Article
	err := c.do(ctx, http.MethodGet, "/api/articles/latest", nil, &out)
	return out, err
}

// FavoriteArticles lists the user's favorited articles.
func (c *Client) FavoriteArticles(ctx context.Context) ([]Article, error) {
	var out []Article
	err := c.do(ctx, http.MethodGet, "/api/articles/favorites", nil, &out)
	return out, err
}

// Article fetches one article with its analyses and Q&A transcript.
func (c *Client) Article(ctx context.Context, id string) (*Article, error) {
	var out Article
	if err := c.do(ctx, http.MethodGet, "/api/articles/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (c *Client) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var resp struct {
		IsFavorited bool `json:"is_favorited"`
	}
	err := c.do(ctx, http.MethodPost, "/api/articles/"+url.PathEscape(id)+"/favorite", nil, &resp)
	return resp.IsFavorited, err
}

// Ask submits a question about an article and returns the answer.
func (c *Client) Ask(ctx context.Context, id, question string) (string, error) {
	var resp struct {
		Answer string `json:"answer"`
	}
	body := map[string]string{"question": question}
	err := c.do(ctx, http.MethodPost, "/api/articles/"+url.PathEscape(id)+"/ask", body, &resp)
	return resp.Answer, err
}

// DeleteArticle removes an article.
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/articles/"+url.PathEscape(id), nil, nil)
}

// Keywords lists the user's keyword set.
func (c *Client) Keywords(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/keywords", nil, &out)
	return out, err
}

// AddKeyword adds a keyword. Duplicate handling is the server's concern.
func (c *Client) AddKeyword(ctx context.Context, keyword string) error {
	return c.do(ctx, http.MethodPost, "/api/keywords", map[string]string{"keyword": keyword}, nil)
}

// DeleteKeyword removes a keyword.
func (c *Client) DeleteKeyword(ctx context.Context, keyword string) error {
	return c.do(ctx, http.MethodDelete, "/api/keywords/"+url.PathEscape(keyword), nil, nil)
}

// Search queries the remote corpus.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var out []SearchResult
	err := c.do(ctx, http.MethodGet, "/api/articles/search?"+url.Values{"query": {query}}.Encode(), nil, &out)
	return out, err
}

// BatchImport imports the given remote entries.
func (c *Client) BatchImport(ctx context.Context, entryIDs []string) error {
	return c.do(ctx, http.MethodPost, "/api/articles/batch-import", map[string][]string{"entry_ids": entryIDs}, nil)
}

// FetchOnDemand triggers server-side ingestion for the user's keywords.
func (c *Client) FetchOnDemand(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/articles/fetch", nil, nil)
}

// Settings fetches the user's settings record.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	err := c.do(ctx, http.MethodGet, "/api/user/settings", nil, &s)
	return s, err
}

// SaveSettings replaces the user's settings record.
func (c *Client) SaveSettings(ctx context.Context, s Settings) error {
	return c.do(ctx, http.MethodPost, "/api/user/settings", s, nil)
}
