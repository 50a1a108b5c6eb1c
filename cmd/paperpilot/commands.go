package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/PaperPilot/internal/api"
	"github.com/TobiSchelling/PaperPilot/internal/app"
)

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, session and local store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := newClient(clientOptions{config: cfg, store: db, logger: logger})
		if err != nil {
			return err
		}
		s := c.ctrl.Restore(cmd.Context())

		fmt.Printf("Server: %s\n", c.api.BaseURL())
		fmt.Printf("Local store: %s\n", db.Path())
		if s.LoggedIn {
			fmt.Printf("Session: logged in as %s\n", s.Username)
		} else {
			fmt.Println("Session: logged out")
		}
		if tab, err := db.Preference("detail_tab"); err == nil && tab != "" {
			fmt.Printf("Detail tab: %s\n", tab)
		}
		return nil
	},
}

// --- account commands ---

var passwordStdin bool

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, err := credentials(args)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.Login{Username: username, Password: password})
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, err := credentials(args)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.Register{Username: username, Password: password})
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.Logout{})
		})
	},
}

func init() {
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	registerCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
}

func credentials(args []string) (string, string, error) {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		u, err := promptText("Username", required("username"))
		if err != nil {
			return "", "", err
		}
		username = u
	}
	if passwordStdin {
		password, err := readSecret(os.Stdin)
		return username, password, err
	}
	password, err := promptPassword("Password")
	return username, password, err
}

// --- browsing commands ---

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List the latest articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.Navigate{View: app.ViewHome})
		})
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorited articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.Navigate{View: app.ViewFavorites})
		})
	},
}

var showTab string

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one article",
	Long:  "Show one article. Without --tab the last selected tab is used.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var actions []app.Action
		if showTab != "" {
			tab, err := app.ParseTab(showTab)
			if err != nil {
				return err
			}
			actions = append(actions, app.SelectTab{Tab: tab})
		}
		actions = append(actions, app.OpenArticle{ID: args[0]})
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, actions...)
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [id] [question...]",
	Short: "Ask a question about an article",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args[1:], " ")
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx,
				app.SelectTab{Tab: app.TabQna},
				app.OpenArticle{ID: args[0]},
				app.AskQuestion{Question: question},
			)
		})
	},
}

var favCmd = &cobra.Command{
	Use:   "fav [id]",
	Short: "Toggle an article's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.OpenArticle{ID: args[0]}, app.ToggleFavorite{ID: args[0]})
		})
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var confirm app.Confirmer = promptConfirm{}
		if deleteYes {
			confirm = yesConfirm{}
		}
		return withClient(cmd.Context(), cmd.OutOrStdout(), confirm, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.DeleteArticle{ID: args[0]})
		})
	},
}

func init() {
	showCmd.Flags().StringVarP(&showTab, "tab", "t", "", "Tab to show: summary, detailed, images or qna")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

// --- keywords command ---

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage subscription keywords",
}

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscription keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.OpenSettings{})
		})
	},
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add [keyword...]",
	Short: "Subscribe to a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.OpenSettings{}, app.AddKeyword{Keyword: keyword})
		})
	},
}

var keywordsRemoveCmd = &cobra.Command{
	Use:     "remove [keyword...]",
	Aliases: []string{"rm"},
	Short:   "Unsubscribe from a keyword",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.OpenSettings{}, app.DeleteKeyword{Keyword: keyword})
		})
	},
}

func init() {
	keywordsCmd.AddCommand(keywordsListCmd)
	keywordsCmd.AddCommand(keywordsAddCmd)
	keywordsCmd.AddCommand(keywordsRemoveCmd)
}

// --- settings command ---

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change per-user settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings and keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.OpenSettings{})
		})
	},
}

var (
	setAPIKey     string
	setModel      string
	setFetchCount int
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; unset flags keep their current values",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("api-key") && !flags.Changed("model") && !flags.Changed("fetch-count") {
			return fmt.Errorf("nothing to change: pass --api-key, --model or --fetch-count")
		}
		if flags.Changed("fetch-count") && setFetchCount < 1 {
			return fmt.Errorf("--fetch-count must be positive")
		}
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			if err := c.dispatch(ctx, app.OpenSettings{}); err != nil {
				return err
			}
			form := c.ctrl.Snapshot().Settings.Form
			if flags.Changed("api-key") {
				form.APIKey = setAPIKey
			}
			if flags.Changed("model") {
				form.ModelName = setModel
			}
			if flags.Changed("fetch-count") {
				form.FetchCount = api.FlexInt(setFetchCount)
			}
			return c.dispatch(ctx, app.EditSettings{Settings: form}, app.SaveSettings{})
		})
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "LLM provider API key")
	settingsSetCmd.Flags().StringVar(&setModel, "model", "", "LLM model name")
	settingsSetCmd.Flags().IntVar(&setFetchCount, "fetch-count", 0, "Articles fetched per keyword")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

// --- search command ---

var (
	searchImport    []string
	searchImportAll bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the external index and optionally import results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			if err := c.dispatch(ctx, app.Navigate{View: app.ViewSearch}, app.Search{Query: query}); err != nil {
				return err
			}
			if len(searchImport) == 0 && !searchImportAll {
				return nil
			}
			results := c.ctrl.Snapshot().Search.Results
			for _, id := range selection(results, searchImport, searchImportAll) {
				if err := c.dispatch(ctx, app.SetSelected{EntryID: id, Checked: true}); err != nil {
					return err
				}
			}
			if c.ctrl.Snapshot().Search.SelectedCount() == 0 {
				return fmt.Errorf("nothing to import")
			}
			return c.dispatch(ctx, app.BatchImport{})
		})
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchImport, "import", nil, "Entry IDs to import")
	searchCmd.Flags().BoolVar(&searchImportAll, "import-all", false, "Import every result not yet imported")
}

// selection picks the importable entries among results.
func selection(results []api.SearchResult, ids []string, all bool) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []string
	for _, r := range results {
		if r.IsImported {
			continue
		}
		if all || want[r.EntryID] {
			out = append(out, r.EntryID)
		}
	}
	return out
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Ask the server to fetch new articles for your keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), cmd.OutOrStdout(), nil, func(ctx context.Context, c *client) error {
			return c.dispatch(ctx, app.FetchNow{})
		})
	},
}

// --- export command ---

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Download BibTeX for one article, or for all favorites",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := newClient(clientOptions{config: cfg, store: db, logger: logger})
		if err != nil {
			return err
		}
		link := c.api.FavoritesExportURL()
		if len(args) == 1 {
			link = c.api.CitationURL(args[0])
		}

		var buf bytes.Buffer
		name, err := c.api.Download(cmd.Context(), link, &buf)
		if err != nil {
			return err
		}
		switch exportOutput {
		case "-":
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		case "":
			exportOutput = name
		}
		if err := os.WriteFile(exportOutput, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		fmt.Printf("Saved %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file, - for stdout (default: server-provided name)")
}

// --- shell command ---

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return runShell(cmd.Context(), shellOptions{
			config: cfg,
			store:  db,
			logger: logger,
			in:     cmd.InOrStdin(),
			out:    cmd.OutOrStdout(),
		})
	},
}
