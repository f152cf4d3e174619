// Package eurlex defines core types shared across subsystems.
package eurlex

import (
	"net/url"
	"time"
)

// CandidateStub is a partially populated act discovered on a listing page.
// Stubs are ephemeral: they only exist between listing parse and detail
// enrichment, and a stub without a CELEX number is discarded by the parser.
type CandidateStub struct {
	Celex        string
	URL          string
	Title        string
	DocumentType string
	DateDocument string
	Summary      string
}

// LegalAct is the persisted unit: a stub merged with detail-page content and
// metadata. Date fields stay raw strings; EUR-Lex renders them in several
// locale formats and normalization belongs to the scoring layer.
type LegalAct struct {
	Celex           string `json:"celex_number"`
	Title           string `json:"title,omitempty"`
	DocumentType    string `json:"document_type,omitempty"`
	SubjectMatter   string `json:"subject_matter,omitempty"`
	DirectoryCode   string `json:"directory_code,omitempty"`
	DateDocument    string `json:"date_document,omitempty"`
	DateForce       string `json:"date_force,omitempty"`
	DateEndValidity string `json:"date_end_validity,omitempty"`
	Content         string `json:"content,omitempty"`
	ContentHash     string `json:"content_hash,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Keywords        string `json:"keywords,omitempty"`
	LegalBasis      string `json:"legal_basis,omitempty"`
	Procedure       string `json:"procedure,omitempty"`
	Addressee       string `json:"addressee,omitempty"`
	URL             string `json:"url"`
}

// Stats is the harvester's progress snapshot, queryable at any point
// including mid-run.
type Stats struct {
	TotalActs    int       `json:"total_acts_in_store"`
	RegistrySize int       `json:"registry_size"`
	Timestamp    time.Time `json:"timestamp"`
}

// StrategyKind names one discovery axis.
type StrategyKind string

// The four discovery axes, run in this order.
const (
	StrategyDocumentType StrategyKind = "document_type"
	StrategyYear         StrategyKind = "year"
	StrategySubject      StrategyKind = "subject"
	StrategyRecent       StrategyKind = "recent"
)

// SearchQuery is one discovery query within a strategy. For search-endpoint
// queries Params holds the static parameters; page and qid are appended at
// request time. Recent-listing queries carry a fixed path instead.
type SearchQuery struct {
	Kind  StrategyKind
	Label string
	// Params are the static search.html parameters. Nil for recent queries.
	Params url.Values
	// Path overrides the search endpoint for single-page listings such as
	// the recent-legislation feed.
	Path string
}

// Strategy is one discovery axis with its ordered queries and item budget.
// The budget is fixed at enumeration time; queries draw from the remainder
// so a strategy never harvests more than its share.
type Strategy struct {
	Kind    StrategyKind
	Queries []SearchQuery
	Budget  int
}

// FetchResult is the outcome of one successful HTTP fetch.
type FetchResult struct {
	URL          string
	StatusCode   int
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
