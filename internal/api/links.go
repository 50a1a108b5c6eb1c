package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// MediaURL resolves an image path against the media root.
func (c *Client) MediaURL(p string) string {
	return c.base.String() + "/media/" + strings.TrimLeft(p, "/")
}

// CitationURL is the direct link to one article's BibTeX entry.
func (c *Client) CitationURL(id string) string {
	return c.base.String() + "/api/articles/" + url.PathEscape(id) + "/export/bibtex"
}

// FavoritesExportURL is the direct link to the BibTeX of all favorites.
func (c *Client) FavoritesExportURL() string {
	return c.base.String() + "/api/articles/favorites/export/bibtex"
}

// Download fetches a direct link with the session cookie and copies the
// body to w. It bypasses response classification: nothing is reported to
// the user and a 401 does not reset the session. The returned name comes
// from Content-Disposition when present.
func (c *Client) Download(ctx context.Context, link string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("downloading %s: status %d", link, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("writing download: %w", err)
	}

	name := path.Base(req.URL.Path)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, nil
}
