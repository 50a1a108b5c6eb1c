package app

import (
	"context"
	"fmt"
)

// Empty-state texts of the list views.
const (
	EmptyHome      = "No recent articles. Add keywords in Settings, then fetch."
	EmptyFavorites = "You have not favorited any articles yet."
)

// Load fetches the data of one view. It does not touch State, so it can be
// called and tested on its own. Search and the auth forms need no fetch.
func (c *Controller) Load(ctx context.Context, view ViewName, id string) (ViewData, error) {
	data := ViewData{View: view}
	switch view {
	case ViewHome:
		articles, err := c.api.LatestArticles(ctx)
		if err != nil {
			return data, err
		}
		data.Articles = articles
		data.EmptyText = EmptyHome
	case ViewFavorites:
		articles, err := c.api.FavoriteArticles(ctx)
		if err != nil {
			return data, err
		}
		data.Articles = articles
		data.EmptyText = EmptyFavorites
		data.ExportURL = c.api.FavoritesExportURL()
	case ViewDetail:
		if id == "" {
			return data, fmt.Errorf("detail view needs an article id")
		}
		article, err := c.api.Article(ctx, id)
		if err != nil {
			return data, err
		}
		data.Article = article
	case ViewLogin:
		if c.prefs != nil {
			if name, err := c.prefs.Preference(prefUsername); err == nil {
				data.Username = name
			}
		}
	case ViewSearch, ViewRegister:
	default:
		return data, fmt.Errorf("unknown view %q", view)
	}
	return data, nil
}
