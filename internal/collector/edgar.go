package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

// cikMap covers the tickers the watchlist is expected to hold. The full
// mapping lives in SEC's company_tickers.json; a static table avoids one
// more network dependency per run.
// TODO: load the full mapping from company_tickers.json at startup.
var cikMap = map[string]string{
	"AAPL":  "0000320193",
	"GOOGL": "0001652044",
	"GOOG":  "0001652044",
	"MSFT":  "0000789019",
	"AMZN":  "0001018724",
	"NVDA":  "0001045810",
	"TSM":   "0001046179",
	"AMD":   "0000002488",
	"INTC":  "0000050863",
	"MU":    "0000723125",
	"WDC":   "0000106040",
	"RKLB":  "0001819994",
	"META":  "0001326801",
	"TSLA":  "0001318605",
	"AVGO":  "0001730168",
	"MRVL":  "0001058057",
}

// relevantForms are the filing types worth surfacing in a daily digest.
var relevantForms = map[string]bool{
	"8-K": true, "10-K": true, "10-Q": true, "6-K": true,
	"20-F": true, "S-1": true, "424B5": true, "SC 13D": true,
}

// EdgarCollector pulls recent filings from SEC EDGAR's submissions API.
// High credibility: primary-source disclosures. SEC requires a User-Agent
// identifying the caller and caps clients at 10 requests per second.
type EdgarCollector struct {
	userAgent  string
	httpClient *http.Client
}

func NewEdgarCollector(userAgent string) *EdgarCollector {
	return &EdgarCollector{
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *EdgarCollector) Name() string {
	return "sec"
}

func (c *EdgarCollector) FetchSince(ctx context.Context, ticker string, since time.Time) ([]model.RawItem, error) {
	cik, ok := cikMap[ticker]
	if !ok {
		// Not an error: non-US listings simply have no EDGAR presence.
		return nil, nil
	}

	url := fmt.Sprintf("https://data.sec.gov/submissions/CIK%s.json", cik)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sec submissions request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sec submissions fetch for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sec submissions fetch for %s: %w", ticker,
			&throttle.StatusError{Service: c.Name(), StatusCode: resp.StatusCode})
	}

	var raw submissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("sec submissions decode: %w", err)
	}

	recent := raw.Filings.Recent
	var items []model.RawItem
	for i := range recent.AccessionNumber {
		form := at(recent.Form, i)
		if !relevantForms[form] {
			continue
		}

		publishedAt := parseAcceptance(at(recent.AcceptanceDateTime, i), at(recent.FilingDate, i))
		if !publishedAt.IsZero() && publishedAt.Before(since) {
			continue
		}

		accession := strings.ReplaceAll(at(recent.AccessionNumber, i), "-", "")
		doc := at(recent.PrimaryDocument, i)
		title := fmt.Sprintf("%s filing: %s", form, raw.Name)
		if desc := at(recent.PrimaryDocDescription, i); desc != "" {
			title = fmt.Sprintf("%s filing: %s", form, desc)
		}

		items = append(items, model.RawItem{
			Source:      c.Name(),
			SourceType:  model.SourceTypeFiling,
			Ticker:      ticker,
			ExternalID:  at(recent.AccessionNumber, i),
			Title:       title,
			Body:        fmt.Sprintf("%s filed form %s with the SEC on %s.", raw.Name, form, at(recent.FilingDate, i)),
			URL:         fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s", strings.TrimLeft(cik, "0"), accession, doc),
			PublishedAt: publishedAt,
			Credibility: model.CredibilityHigh,
		})
	}

	return items, nil
}

// at guards EDGAR's parallel arrays, which are not always the same length.
func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func parseAcceptance(acceptance, filingDate string) time.Time {
	if ts, err := time.Parse(time.RFC3339, acceptance); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse("2006-01-02", filingDate); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

type submissionsResponse struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber       []string `json:"accessionNumber"`
			Form                  []string `json:"form"`
			FilingDate            []string `json:"filingDate"`
			AcceptanceDateTime    []string `json:"acceptanceDateTime"`
			PrimaryDocument       []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}
