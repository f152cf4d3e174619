package eurlex

import (
	"net/url"
	"strconv"
	"time"
)

// documentTypes are the FM_CODED values searched by the document-type
// strategy, paired with a human label for logs.
var documentTypes = []struct {
	Code string
	Name string
}{
	{"REG", "Regulation"},
	{"DIR", "Directive"},
	{"DEC", "Decision"},
	{"REC", "Recommendation"},
	{"OPI", "Opinion"},
	{"RES", "Resolution"},
	{"DEC_IMPL", "Implementing Decision"},
	{"REG_IMPL", "Implementing Regulation"},
	{"DIR_DELEG", "Delegated Directive"},
	{"REG_DELEG", "Delegated Regulation"},
}

// subjects is the fixed free-text vocabulary for the subject strategy.
var subjects = []string{
	"competition", "environment", "agriculture", "transport", "energy",
	"digital", "health", "consumer", "employment", "taxation",
	"trade", "migration", "security", "justice", "education",
	"research", "fisheries", "regional", "budget", "external",
}

// yearsBack is how many calendar years the year strategy covers.
const yearsBack = 10

// recentListingPath is the single-page recent-legislation feed.
const recentListingPath = "/collection/eu-law/legal-acts/recent.html"

// EnumerateStrategies builds the four discovery strategies in their fixed
// execution order: by document type, by year (newest first), by subject,
// then the recent listing. Each strategy's budget is maxActs divided by the
// strategy count; the remainder lost to integer division is intentional.
// Enumeration is deterministic for a given (maxActs, now) and performs no
// network access.
func EnumerateStrategies(maxActs int, now time.Time) []Strategy {
	typeQueries := make([]SearchQuery, 0, len(documentTypes))
	for _, dt := range documentTypes {
		typeQueries = append(typeQueries, SearchQuery{
			Kind:   StrategyDocumentType,
			Label:  dt.Name,
			Params: searchParams("FM_CODED", dt.Code),
		})
	}

	yearQueries := make([]SearchQuery, 0, yearsBack)
	for year := now.Year(); year > now.Year()-yearsBack; year-- {
		yearQueries = append(yearQueries, SearchQuery{
			Kind:   StrategyYear,
			Label:  strconv.Itoa(year),
			Params: searchParams("DD_YEAR", strconv.Itoa(year)),
		})
	}

	subjectQueries := make([]SearchQuery, 0, len(subjects))
	for _, subject := range subjects {
		subjectQueries = append(subjectQueries, SearchQuery{
			Kind:   StrategySubject,
			Label:  subject,
			Params: searchParams("text", subject),
		})
	}

	strategies := []Strategy{
		{Kind: StrategyDocumentType, Queries: typeQueries},
		{Kind: StrategyYear, Queries: yearQueries},
		{Kind: StrategySubject, Queries: subjectQueries},
		{Kind: StrategyRecent, Queries: []SearchQuery{{
			Kind:  StrategyRecent,
			Label: "recent legislation",
			Path:  recentListingPath,
		}}},
	}

	budget := maxActs / len(strategies)
	for i := range strategies {
		strategies[i].Budget = budget
	}
	return strategies
}

// searchParams returns the static search.html parameters shared by every
// search-endpoint query, plus the strategy's own selector. The qid
// cache-buster and page number are appended at request time.
func searchParams(key, value string) url.Values {
	params := url.Values{}
	params.Set("scope", "EURLEX")
	params.Set("type", "quick")
	params.Set("lang", "en")
	params.Set("DTS_DOM", "ALL")
	params.Set("sort", "DATE_DOCU")
	params.Set("sortOrder", "DESC")
	params.Set(key, value)
	return params
}
