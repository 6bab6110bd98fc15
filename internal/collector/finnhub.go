package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

// FinnhubCollector pulls company news from Finnhub. Medium credibility:
// aggregated financial media, not primary sources.
type FinnhubCollector struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubCollector(apiKey string) *FinnhubCollector {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &FinnhubCollector{client: finnhub.NewAPIClient(cfg).DefaultApi}
}

func (c *FinnhubCollector) Name() string {
	return "finnhub"
}

func (c *FinnhubCollector) FetchSince(ctx context.Context, ticker string, since time.Time) ([]model.RawItem, error) {
	res, resp, err := c.client.CompanyNews(ctx).
		Symbol(ticker).
		From(since.UTC().Format("2006-01-02")).
		To(time.Now().UTC().Format("2006-01-02")).
		Execute()
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("finnhub company news for %s: %w", ticker,
				&throttle.StatusError{Service: c.Name(), StatusCode: resp.StatusCode})
		}
		return nil, fmt.Errorf("finnhub company news for %s: %w", ticker, err)
	}

	var items []model.RawItem
	for _, n := range res {
		item := model.RawItem{
			Source:      c.Name(),
			SourceType:  model.SourceTypeNews,
			Ticker:      ticker,
			Credibility: model.CredibilityMedium,
		}

		if n.Id != nil {
			item.ExternalID = strconv.FormatInt(*n.Id, 10)
		}
		if n.Headline != nil {
			item.Title = *n.Headline
		}
		if n.Summary != nil {
			item.Body = *n.Summary
		}
		if n.Url != nil {
			item.URL = *n.Url
		}
		if n.Datetime != nil {
			item.PublishedAt = time.Unix(*n.Datetime, 0).UTC()
		}

		// The date-granular API can return items just outside the window.
		if !item.PublishedAt.IsZero() && item.PublishedAt.Before(since) {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}
