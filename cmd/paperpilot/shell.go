package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/app"
	"github.com/TobiSchelling/PaperPilot/internal/config"
	"github.com/TobiSchelling/PaperPilot/internal/screen"
)

const shellPrompt = "paperpilot> "

const shellHelp = `Commands:
  home | favorites | search        switch view
  open <n|id>                      open an article by list number or ID
  back                             previous top-level view
  tab <summary|detailed|images|qna>
  ask <question>                   ask about the open article (qna tab)
  fav [n|id]                       toggle favorite
  delete [n|id]                    delete an article
  fetch                            fetch new articles for your keywords
  find <query>                     search the external index
  select <n>... | unselect <n>...  pick search results
  import                           import the picked results
  settings                         open settings
  set key=value                    api_key, model_name or fetch_count
  save | close                     save settings, or close the overlay
  kw add <keyword> | kw rm <keyword>
  login <user> <password> | register <user> <password> | logout
  messages                         recent notifications
  help | quit
`

var errUsage = errors.New("usage")

// shellCommand is one parsed input line.
type shellCommand struct {
	actions  []app.Action
	help     bool
	messages bool
	quit     bool
}

// parseLine turns one input line into actions, resolving list numbers
// against the current state.
func parseLine(line string, st app.State) (shellCommand, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return shellCommand{}, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	one := func(a app.Action) (shellCommand, error) {
		return shellCommand{actions: []app.Action{a}}, nil
	}

	switch verb {
	case "help", "?":
		return shellCommand{help: true}, nil
	case "quit", "exit":
		return shellCommand{quit: true}, nil
	case "messages":
		return shellCommand{messages: true}, nil
	case "home", "latest":
		return one(app.Navigate{View: app.ViewHome})
	case "favorites", "favs":
		return one(app.Navigate{View: app.ViewFavorites})
	case "search":
		return one(app.Navigate{View: app.ViewSearch})
	case "back":
		return one(app.Back{})
	case "logout":
		return one(app.Logout{})
	case "fetch":
		return one(app.FetchNow{})
	case "settings":
		return one(app.OpenSettings{})
	case "save":
		return one(app.SaveSettings{})
	case "import":
		return one(app.BatchImport{})
	case "close":
		switch {
		case st.Search.Open:
			return one(app.CloseSearch{})
		case st.Settings.Open:
			return one(app.CloseSettings{})
		}
		return shellCommand{}, errors.New("nothing to close")
	case "open":
		id, err := articleRef(args, st, false)
		if err != nil {
			return shellCommand{}, err
		}
		return one(app.OpenArticle{ID: id})
	case "fav":
		id, err := articleRef(args, st, true)
		if err != nil {
			return shellCommand{}, err
		}
		return one(app.ToggleFavorite{ID: id})
	case "delete":
		id, err := articleRef(args, st, true)
		if err != nil {
			return shellCommand{}, err
		}
		return one(app.DeleteArticle{ID: id})
	case "tab":
		if len(args) != 1 {
			return shellCommand{}, fmt.Errorf("%w: tab <summary|detailed|images|qna>", errUsage)
		}
		tab, err := app.ParseTab(args[0])
		if err != nil {
			return shellCommand{}, err
		}
		return one(app.SelectTab{Tab: tab})
	case "ask":
		if rest == "" {
			return shellCommand{}, fmt.Errorf("%w: ask <question>", errUsage)
		}
		return one(app.AskQuestion{Question: rest})
	case "find":
		if rest == "" {
			return shellCommand{}, fmt.Errorf("%w: find <query>", errUsage)
		}
		return one(app.Search{Query: rest})
	case "select", "unselect":
		if len(args) == 0 {
			return shellCommand{}, fmt.Errorf("%w: %s <n>...", errUsage, verb)
		}
		var cmd shellCommand
		for _, a := range args {
			id, err := resultRef(a, st.Search.Results)
			if err != nil {
				return shellCommand{}, err
			}
			cmd.actions = append(cmd.actions, app.SetSelected{EntryID: id, Checked: verb == "select"})
		}
		return cmd, nil
	case "set":
		form, err := applySetting(st.Settings.Form, args)
		if err != nil {
			return shellCommand{}, err
		}
		return one(app.EditSettings{Settings: form})
	case "kw":
		if len(args) < 2 {
			return shellCommand{}, fmt.Errorf("%w: kw add|rm <keyword>", errUsage)
		}
		keyword := strings.Join(args[1:], " ")
		switch strings.ToLower(args[0]) {
		case "add":
			return one(app.AddKeyword{Keyword: keyword})
		case "rm", "remove":
			return one(app.DeleteKeyword{Keyword: keyword})
		}
		return shellCommand{}, fmt.Errorf("%w: kw add|rm <keyword>", errUsage)
	case "login", "register":
		if len(args) != 2 {
			return shellCommand{}, fmt.Errorf("%w: %s <user> <password>", errUsage, verb)
		}
		if verb == "login" {
			return one(app.Login{Username: args[0], Password: args[1]})
		}
		return one(app.Register{Username: args[0], Password: args[1]})
	}
	return shellCommand{}, fmt.Errorf("unknown command %q, try help", fields[0])
}

// articleRef resolves a list number or literal ID. With no argument it
// falls back to the open article when allowOpen is set.
func articleRef(args []string, st app.State, allowOpen bool) (string, error) {
	if len(args) == 0 {
		if allowOpen && st.View == app.ViewDetail && st.ArticleID != "" {
			return st.ArticleID, nil
		}
		return "", fmt.Errorf("%w: expected an article number or ID", errUsage)
	}
	ref := args[0]
	if n, err := strconv.Atoi(ref); err == nil && (st.View == app.ViewHome || st.View == app.ViewFavorites) {
		if n >= 1 && n <= len(st.Articles) {
			return st.Articles[n-1].ID.String(), nil
		}
	}
	return ref, nil
}

func resultRef(ref string, results []api.SearchResult) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		for _, r := range results {
			if r.EntryID == ref {
				return ref, nil
			}
		}
		return "", fmt.Errorf("no search result %q", ref)
	}
	if n < 1 || n > len(results) {
		return "", fmt.Errorf("no search result %d", n)
	}
	return results[n-1].EntryID, nil
}

func applySetting(form api.Settings, args []string) (api.Settings, error) {
	if len(args) == 0 {
		return form, fmt.Errorf("%w: set key=value", errUsage)
	}
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return form, fmt.Errorf("%w: set key=value", errUsage)
		}
		switch strings.ToLower(key) {
		case "api_key":
			form.APIKey = value
		case "model_name", "model":
			form.ModelName = value
		case "fetch_count":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return form, fmt.Errorf("fetch_count must be a positive number")
			}
			form.FetchCount = api.FlexInt(n)
		default:
			return form, fmt.Errorf("unknown setting %q", key)
		}
	}
	return form, nil
}

type shellOptions struct {
	config  *config.Config
	store   store
	logger  *logrus.Logger
	in      io.Reader
	out     io.Writer
	spinner io.Writer
}

// runShell reads commands until EOF or quit, printing the screen after
// each one.
func runShell(ctx context.Context, opts shellOptions) error {
	scanner := bufio.NewScanner(opts.in)
	c, err := newClient(clientOptions{
		config:  opts.config,
		store:   opts.store,
		logger:  opts.logger,
		confirm: lineConfirm{in: scanner, out: opts.out},
		spinner: opts.spinner,
	})
	if err != nil {
		return err
	}

	if err := settle(c.ctrl.Start(ctx)); err != nil && !errors.Is(err, api.ErrRequestFailed) {
		fmt.Fprintln(opts.out, "Error:", err)
	}
	c.flush(opts.out)

	for {
		fmt.Fprint(opts.out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(opts.out)
			return scanner.Err()
		}
		cmd, err := parseLine(scanner.Text(), c.ctrl.Snapshot())
		switch {
		case err != nil:
			fmt.Fprintln(opts.out, err)
			continue
		case cmd.quit:
			return nil
		case cmd.help:
			fmt.Fprint(opts.out, shellHelp)
			continue
		case cmd.messages:
			screen.PrintNotifications(opts.out, c.notes.Active())
			continue
		case len(cmd.actions) == 0:
			continue
		}

		err = settle(c.dispatch(ctx, cmd.actions...))
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, api.ErrRequestFailed) {
			fmt.Fprintln(opts.out, "Error:", err)
		}
		c.flush(opts.out)
	}
}
