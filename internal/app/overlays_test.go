package app

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/notify"
)

func TestOpenSettingsFillsDefaults(t *testing.T) {
	f := newFixture(t)
	f.srv.SetSettings(api.Settings{APIKey: "sk-test"})
	f.srv.SetKeywords("diffusion", "transformers")
	f.loggedIn(t)
	f.do(t, Navigate{View: ViewFavorites})

	f.do(t, OpenSettings{})

	st := f.ctrl.Snapshot()
	if !st.Settings.Open {
		t.Fatal("expected settings open")
	}
	want := api.Settings{APIKey: "sk-test", ModelName: DefaultModelName, FetchCount: DefaultFetchCount}
	if st.Settings.Form != want {
		t.Errorf("expected %+v, got %+v", want, st.Settings.Form)
	}
	if !reflect.DeepEqual(st.Settings.Keywords, []string{"diffusion", "transformers"}) {
		t.Errorf("unexpected keywords %v", st.Settings.Keywords)
	}
	if st.View != ViewFavorites {
		t.Errorf("overlay must not change the view, got %q", st.View)
	}
}

func TestOpenSettingsFailureNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.srv.FailNext("GET /api/keywords", http.StatusInternalServerError, "keywords unavailable")

	err := f.ctrl.Dispatch(context.Background(), OpenSettings{})
	if !errors.Is(err, api.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if st := f.ctrl.Snapshot(); st.Settings.Open {
		t.Error("expected settings to stay closed")
	}
	if msgs := f.messages(); len(msgs) != 1 {
		t.Errorf("expected one notification, got %v", msgs)
	}
}

func TestAddKeywordRefetchesSet(t *testing.T) {
	f := newFixture(t)
	f.srv.SetKeywords("diffusion")
	f.loggedIn(t)
	f.do(t, OpenSettings{})

	f.do(t, AddKeyword{Keyword: "  transformers "})

	if got := f.srv.Hits("GET /api/keywords"); got != 2 {
		t.Errorf("expected a refetch after add, got %d fetches", got)
	}
	st := f.ctrl.Snapshot()
	if !reflect.DeepEqual(st.Settings.Keywords, []string{"diffusion", "transformers"}) {
		t.Errorf("unexpected keywords %v", st.Settings.Keywords)
	}
}

func TestAddEmptyKeywordIsNoop(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, AddKeyword{Keyword: "   "})
	if got := f.srv.Hits("POST /api/keywords"); got != 0 {
		t.Errorf("expected no call, got %d", got)
	}
}

func TestAddKeywordFailureSkipsRefresh(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, OpenSettings{})
	f.srv.FailNext("POST /api/keywords", http.StatusBadRequest, "Keyword is required")

	err := f.ctrl.Dispatch(context.Background(), AddKeyword{Keyword: "x"})
	if !errors.Is(err, api.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if got := f.srv.Hits("GET /api/keywords"); got != 1 {
		t.Errorf("expected no refresh after failure, got %d fetches", got)
	}
}

func TestDeleteOnlyKeywordLeavesEmptySet(t *testing.T) {
	f := newFixture(t)
	f.srv.SetKeywords("transformers")
	f.loggedIn(t)
	f.do(t, OpenSettings{})

	f.do(t, DeleteKeyword{Keyword: "transformers"})

	if st := f.ctrl.Snapshot(); len(st.Settings.Keywords) != 0 {
		t.Errorf("expected empty keyword set, got %v", st.Settings.Keywords)
	}
	events := f.surf.Events()
	if events[len(events)-1] != "keywords " {
		t.Errorf("expected empty keyword render last, got %v", events)
	}
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, OpenSettings{})

	form := api.Settings{APIKey: "sk-new", ModelName: "deepseek-reasoner", FetchCount: 8}
	f.do(t, EditSettings{Settings: form})
	f.do(t, SaveSettings{})

	if got := f.srv.StoredSettings(); got != form {
		t.Errorf("expected %+v stored, got %+v", form, got)
	}
	if st := f.ctrl.Snapshot(); st.Settings.Open {
		t.Error("expected settings closed after save")
	}
	msgs := f.messages()
	if len(msgs) != 1 || msgs[0] != settingsSavedText {
		t.Errorf("expected save notice, got %v", msgs)
	}
}

func TestSaveSettingsFailureKeepsOverlay(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, OpenSettings{})
	f.do(t, EditSettings{Settings: api.Settings{APIKey: "sk-new"}})
	f.srv.FailNext("POST /api/user/settings", http.StatusInternalServerError, "")

	if err := f.ctrl.Dispatch(context.Background(), SaveSettings{}); err == nil {
		t.Fatal("expected save to fail")
	}
	st := f.ctrl.Snapshot()
	if !st.Settings.Open || st.Settings.Form.APIKey != "sk-new" {
		t.Errorf("expected overlay open with edits, got %+v", st.Settings)
	}
	if msgs := f.messages(); len(msgs) != 1 {
		t.Errorf("expected one notification, got %v", msgs)
	}
}

func TestCloseSettingsDiscardsEdits(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, OpenSettings{})
	f.do(t, EditSettings{Settings: api.Settings{APIKey: "unsaved"}})
	f.do(t, CloseSettings{})

	if st := f.ctrl.Snapshot(); st.Settings.Open || st.Settings.Form.APIKey != "" {
		t.Errorf("expected discarded form, got %+v", st.Settings)
	}
	if f.srv.Hits("POST /api/user/settings") != 0 {
		t.Error("closing must not save")
	}
}

func searchCorpus() []api.SearchResult {
	return []api.SearchResult{
		{EntryID: "2401.1", Title: "Graph transformers", Summary: "graphs"},
		{EntryID: "2401.2", Title: "Graph diffusion", Summary: "graphs", IsImported: true},
		{EntryID: "2401.3", Title: "Graph pooling", Summary: "graphs"},
	}
}

func TestSearchSelectionCounter(t *testing.T) {
	f := newFixture(t)
	f.srv.SetCorpus(searchCorpus())
	f.loggedIn(t)

	f.do(t, Search{Query: "graph"})
	events := f.surf.Events()
	searching := indexOf(events, "search searching")
	results := indexOf(events, "search 3 results")
	if searching < 0 || results < searching {
		t.Fatalf("expected searching then results, got %v", events)
	}

	f.do(t, SetSelected{EntryID: "2401.2", Checked: true})
	if st := f.ctrl.Snapshot(); st.Search.SelectedCount() != 0 {
		t.Error("imported rows must not be selectable")
	}
	f.do(t, SetSelected{EntryID: "2401.1", Checked: true})
	f.do(t, SetSelected{EntryID: "2401.3", Checked: true})
	f.do(t, SetSelected{EntryID: "2401.1", Checked: false})

	events = f.surf.Events()
	want := []string{"selection 1 true", "selection 2 true", "selection 1 true"}
	if got := events[len(events)-3:]; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	st := f.ctrl.Snapshot()
	if !reflect.DeepEqual(st.Search.SelectedIDs(), []string{"2401.3"}) {
		t.Errorf("unexpected selection %v", st.Search.SelectedIDs())
	}
}

func TestSearchEmptyQueryIsNoop(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.do(t, Search{Query: "  "})
	if f.srv.Hits("GET /api/articles/search") != 0 {
		t.Error("expected no search call")
	}
	if st := f.ctrl.Snapshot(); st.Search.Open {
		t.Error("expected overlay to stay closed")
	}
}

func TestSearchNoResults(t *testing.T) {
	f := newFixture(t)
	f.srv.SetCorpus(searchCorpus())
	f.loggedIn(t)
	f.do(t, Search{Query: "quantum"})
	if !f.surf.Has("search 0 results") {
		t.Errorf("expected empty result render, got %v", f.surf.Events())
	}
}

func TestBatchImport(t *testing.T) {
	f := newFixture(t)
	f.srv.SetCorpus(searchCorpus())
	f.loggedIn(t)
	f.do(t, Navigate{View: ViewFavorites})
	f.do(t, Search{Query: "graph"})
	f.do(t, SetSelected{EntryID: "2401.1", Checked: true})
	f.do(t, SetSelected{EntryID: "2401.3", Checked: true})

	f.do(t, BatchImport{})

	events := f.surf.Events()
	blocking := indexOf(events, "blocking Importing 2 articles...")
	unblock := indexOf(events, "unblock")
	hide := indexOf(events, "hide search")
	home := indexOf(events, "present home")
	if blocking < 0 || unblock < blocking || hide < unblock || home < hide {
		t.Errorf("unexpected event order %v", events)
	}
	st := f.ctrl.Snapshot()
	if st.View != ViewHome || st.Search.Open {
		t.Errorf("expected home with overlay closed, got %q open=%t", st.View, st.Search.Open)
	}
	if len(st.Articles) != 2 {
		t.Errorf("expected 2 imported articles, got %d", len(st.Articles))
	}
	msgs := f.messages()
	if len(msgs) != 1 || msgs[0] != importedText {
		t.Errorf("expected import notice, got %v", msgs)
	}
}

func TestBatchImportEmptySelectionIsNoop(t *testing.T) {
	f := newFixture(t)
	f.srv.SetCorpus(searchCorpus())
	f.loggedIn(t)
	f.do(t, Search{Query: "graph"})
	f.do(t, BatchImport{})

	if f.srv.Hits("POST /api/articles/batch-import") != 0 {
		t.Error("expected no import call")
	}
	if st := f.ctrl.Snapshot(); !st.Search.Open {
		t.Error("expected overlay to stay open")
	}
}

func TestBatchImportFailureKeepsOverlay(t *testing.T) {
	f := newFixture(t)
	f.srv.SetCorpus(searchCorpus())
	f.loggedIn(t)
	f.do(t, Search{Query: "graph"})
	f.do(t, SetSelected{EntryID: "2401.1", Checked: true})
	f.srv.FailNext("POST /api/articles/batch-import", http.StatusInternalServerError, "queue full")

	if err := f.ctrl.Dispatch(context.Background(), BatchImport{}); err == nil {
		t.Fatal("expected import to fail")
	}
	st := f.ctrl.Snapshot()
	if !st.Search.Open || st.Blocking != "" {
		t.Errorf("expected overlay open and indicator hidden, got open=%t blocking=%q", st.Search.Open, st.Blocking)
	}
}

func TestFetchNowRefreshesCurrentView(t *testing.T) {
	f := newFixture(t)
	f.srv.SetKeywords("llm")
	f.loggedIn(t)
	before := f.srv.Hits("GET /api/articles/latest")

	f.do(t, FetchNow{})

	events := f.surf.Events()
	if indexOf(events, "blocking "+fetchingText) < 0 || indexOf(events, "unblock") < 0 {
		t.Errorf("expected blocking indicator, got %v", events)
	}
	if got := f.srv.Hits("GET /api/articles/latest") - before; got != 1 {
		t.Errorf("expected one refresh, got %d", got)
	}
	st := f.ctrl.Snapshot()
	if len(st.Articles) != 1 || st.Articles[0].Title != "Recent work on llm" {
		t.Errorf("expected fetched article, got %+v", st.Articles)
	}
	msgs := f.messages()
	if len(msgs) != 1 || msgs[0] != fetchedText {
		t.Errorf("expected fetch notice, got %v", msgs)
	}
}

func TestFetchNoticeOutlivesSlowRefresh(t *testing.T) {
	f := newFixtureWithCenter(t, notify.NewCenter(20*time.Millisecond, 100))
	f.loggedIn(t)
	arrived, release := f.srv.Block("GET /api/articles/latest")

	done := make(chan error, 1)
	go func() {
		done <- f.ctrl.Dispatch(context.Background(), FetchNow{})
	}()
	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never arrived")
	}
	// The refresh takes longer than the notification TTL.
	time.Sleep(100 * time.Millisecond)
	release()
	if err := <-done; err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	msgs := f.messages()
	if len(msgs) != 1 || msgs[0] != fetchedText {
		t.Errorf("expected fetch notice delivered, got %v", msgs)
	}
}

func TestFetchNowIsDeduplicated(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	arrived, release := f.srv.Block("POST /api/articles/fetch")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- f.ctrl.Dispatch(context.Background(), FetchNow{})
	}()
	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never arrived")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- f.ctrl.Dispatch(context.Background(), FetchNow{})
	}()
	// Give the second trigger time to join the in-flight call.
	time.Sleep(100 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error %v", err)
		}
	}
	if got := f.srv.Hits("POST /api/articles/fetch"); got != 1 {
		t.Errorf("expected one ingestion call, got %d", got)
	}
	if msgs := f.messages(); len(msgs) != 1 {
		t.Errorf("expected one notice, got %v", msgs)
	}
}
