// Package reviewstore reads scraped product reviews from Elasticsearch.
package reviewstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cosmetic-insights/internal/analytics/sentiment"
)

// IndexMapping is the mapping for a new review index.
const IndexMapping = `{
	"mappings": {
		"properties": {
			"product_asin":    {"type": "keyword"},
			"product_name":    {"type": "text"},
			"rating":          {"type": "float"},
			"title":           {"type": "text"},
			"text":            {"type": "text"},
			"date":            {"type": "date"},
			"sentiment":       {"type": "keyword"},
			"sentiment_score": {"type": "float"}
		}
	}
}`

var ErrMissingProduct = errors.New("product id is required")

// document is the indexed shape written by the review scraper.
type document struct {
	ProductASIN    string   `json:"product_asin"`
	ProductName    string   `json:"product_name"`
	Rating         *float64 `json:"rating"`
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	Date           string   `json:"date,omitempty"`
	Sentiment      string   `json:"sentiment,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Store searches one review index.
type Store struct {
	client     *elasticsearch.Client
	index      string
	maxReviews int
}

// New defaults index to "reviews" and maxReviews to 1000.
func New(client *elasticsearch.Client, index string, maxReviews int) *Store {
	if index == "" {
		index = "reviews"
	}
	if maxReviews <= 0 {
		maxReviews = 1000
	}
	return &Store{client: client, index: index, maxReviews: maxReviews}
}

// ReviewsForProduct returns up to maxReviews reviews for productID, newest
// first. A missing index yields no reviews.
func (s *Store) ReviewsForProduct(ctx context.Context, productID string) ([]sentiment.Review, error) {
	if productID == "" {
		return nil, ErrMissingProduct
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"product_asin": productID},
		},
		"sort": []interface{}{
			map[string]interface{}{"date": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	size := s.maxReviews
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sentiment.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, res.Body)
		return []sentiment.Review{}, nil
	}
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		if res.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %s", sentiment.ErrSourceUnavailable, res.Status())
		}
		return nil, fmt.Errorf("review search failed: %s: %s", res.Status(), raw)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode review search: %w", err)
	}

	reviews := make([]sentiment.Review, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		d := hit.Source
		reviews = append(reviews, sentiment.Review{
			ID:             hit.ID,
			ProductID:      d.ProductASIN,
			ProductName:    d.ProductName,
			Rating:         scrapedRating(d.Rating),
			Title:          d.Title,
			Text:           d.Text,
			Sentiment:      d.Sentiment,
			SentimentScore: d.SentimentScore,
		})
	}
	return reviews, nil
}

// scrapedRating drops the 0 the scraper writes when a review has no stars.
func scrapedRating(r *float64) *float64 {
	if r == nil || *r <= 0 {
		return nil
	}
	return r
}
