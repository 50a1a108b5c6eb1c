package app

import (
	"context"
	"fmt"
	"strings"
)

const importedText = "Import succeeded! The articles are being analyzed."

// search runs a remote-corpus query in the overlay. A newer query or a
// closed overlay discards the result.
func (c *Controller) search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	c.state.Search = SearchState{Open: true, Query: query, Searching: true, Selected: map[string]bool{}}
	c.surface.PresentSearch(c.state.Search.clone())
	c.surface.PresentSelection(0, false)
	c.mu.Unlock()

	results, err := c.api.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		return err
	}
	c.state.Search.Searching = false
	if err != nil {
		c.state.Search.Failed = true
	} else {
		c.state.Search.Results = results
	}
	c.surface.PresentSearch(c.state.Search.clone())
	return err
}

// setSelected toggles one checkbox. Imported rows are disabled and ignore
// the change.
func (c *Controller) setSelected(entryID string, checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.state.Search
	if !s.Open {
		return
	}
	found := false
	for _, r := range s.Results {
		if r.EntryID == entryID && !r.IsImported {
			found = true
			break
		}
	}
	if !found {
		return
	}
	if checked {
		s.Selected[entryID] = true
	} else {
		delete(s.Selected, entryID)
	}
	c.surface.PresentSelection(s.SelectedCount(), s.ImportEnabled())
}

// batchImport imports the selection, then closes the overlay and forces
// navigation home.
func (c *Controller) batchImport(ctx context.Context) error {
	c.mu.Lock()
	ids := c.state.Search.SelectedIDs()
	c.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	c.showBlocking(fmt.Sprintf("Importing %d articles...", len(ids)))
	err := c.api.BatchImport(ctx, ids)
	c.hideBlocking()
	if err != nil {
		return err
	}
	c.closeSearch()
	c.notes.Success(importedText)
	return c.navigate(ctx, ViewHome, "")
}

func (c *Controller) closeSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchGen++
	c.state.Search = SearchState{}
	c.surface.HideSearch()
}

func (s SearchState) clone() SearchState {
	out := s
	out.Results = append(out.Results[:0:0], s.Results...)
	out.Selected = make(map[string]bool, len(s.Selected))
	for k, v := range s.Selected {
		out.Selected[k] = v
	}
	return out
}
