package app

import "context"

const (
	fetchingText   = "Fetching the latest articles in the background..."
	fetchedText    = "Fetch complete! Refreshing the list..."
	deletedText    = "Article deleted."
	confirmDelete  = "Delete this article? This cannot be undone."
	fetchFlightKey = "fetch"
)

// fetchNow triggers server-side ingestion behind a blocking indicator, then
// re-navigates to the current view. Concurrent triggers share one call and
// only the first one refreshes.
func (c *Controller) fetchNow(ctx context.Context) error {
	leader := false
	_, err, _ := c.fetches.Do(fetchFlightKey, func() (any, error) {
		leader = true
		c.showBlocking(fetchingText)
		defer c.hideBlocking()
		return nil, c.api.FetchOnDemand(ctx)
	})
	if err != nil || !leader {
		return err
	}
	c.notes.Success(fetchedText)
	return c.refresh(ctx)
}

// deleteArticle asks for confirmation unless confirmed is set, deletes the
// article and returns home.
func (c *Controller) deleteArticle(ctx context.Context, id string, confirmed bool) error {
	if id == "" {
		id = c.Snapshot().ArticleID
	}
	if id == "" {
		return nil
	}
	if !confirmed {
		if c.confirm == nil {
			return nil
		}
		ok, err := c.confirm.Confirm(confirmDelete)
		if err != nil || !ok {
			return err
		}
	}
	if err := c.api.DeleteArticle(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	if c.state.ArticleID == id {
		c.state.ArticleID = ""
	}
	c.mu.Unlock()
	c.notes.Info(deletedText)
	return c.navigate(ctx, ViewHome, "")
}
