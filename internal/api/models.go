package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ArticleID is an article identifier. The API sends integers; the client
// treats them as opaque strings.
type ArticleID string

func (id *ArticleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ArticleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("article id: %w", err)
	}
	*id = ArticleID(n.String())
	return nil
}

func (id ArticleID) String() string { return string(id) }

// Article is the client's ephemeral copy of a stored article. List
// endpoints fill only ID, Title, Authors and IsFavorited.
type Article struct {
	ID               ArticleID         `json:"id"`
	Title            string            `json:"title"`
	Authors          []string          `json:"authors"`
	Published        string            `json:"published,omitempty"`
	PDFURL           string            `json:"pdf_url,omitempty"`
	OriginalSummary  string            `json:"original_summary,omitempty"`
	IsFavorited      bool              `json:"is_favorited"`
	SummaryAnalysis  *SummaryAnalysis  `json:"summary_analysis,omitempty"`
	DetailedAnalysis *DetailedAnalysis `json:"detailed_analysis,omitempty"`
	QnaHistory       []QnA             `json:"qna_history,omitempty"`
	ImagePaths       []string          `json:"image_paths,omitempty"`
}

// AuthorList joins the authors for display.
func (a *Article) AuthorList() string {
	return strings.Join(a.Authors, ", ")
}

// SummaryAnalysis is the generated short summary.
type SummaryAnalysis struct {
	Summary string `json:"simplified_summary_zh"`
}

// DetailedAnalysis is the generated long-form analysis.
type DetailedAnalysis struct {
	Background      string   `json:"background"`
	Methodology     string   `json:"methodology"`
	KeyInnovations  []string `json:"key_innovations"`
	PotentialImpact string   `json:"potential_impact"`
}

// QnA is one question/answer exchange about an article.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SearchResult is a remote-corpus hit offered for import.
type SearchResult struct {
	EntryID    string   `json:"entry_id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Summary    string   `json:"summary"`
	IsImported bool     `json:"is_imported"`
}

// Settings is the per-user settings record, replaced wholesale on save.
type Settings struct {
	APIKey     string  `json:"api_key"`
	ModelName  string  `json:"model_name,omitempty"`
	FetchCount FlexInt `json:"fetch_count,omitempty"`
}

// FlexInt decodes from either a JSON number or a numeric string; form
// fields historically posted fetch_count as text.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("fetch_count: %w", err)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// AuthStatus is the session probe response.
type AuthStatus struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Username   string `json:"username,omitempty"`
}
