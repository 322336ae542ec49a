package reviewstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmetic-insights/internal/analytics/sentiment"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) *http.Response {
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

func newStore(t *testing.T, rt roundTripFunc) *Store {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Transport:  rt,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return New(es, "reviews", 50)
}

const twoHits = `{
	"hits": {
		"hits": [
			{"_id": "r1", "_source": {"product_asin": "B001", "product_name": "Serum", "rating": 5, "title": "Love it", "text": "Great serum"}},
			{"_id": "r2", "_source": {"product_asin": "B001", "product_name": "Serum", "title": "Meh", "text": "Dried my skin", "sentiment": "negative", "sentiment_score": -0.4}}
		]
	}
}`

// ==========================
// ReviewsForProduct
// ==========================

func TestStore_ReviewsForProduct(t *testing.T) {
	var gotPath, gotSize string
	var gotQuery map[string]interface{}

	store := newStore(t, func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		gotSize = r.URL.Query().Get("size")
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&gotQuery)
		}
		return respond(http.StatusOK, twoHits), nil
	})

	reviews, err := store.ReviewsForProduct(context.Background(), "B001")
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "/reviews/_search", gotPath)
	assert.Equal(t, "50", gotSize)
	term := gotQuery["query"].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "B001", term["product_asin"])

	assert.Equal(t, "r1", reviews[0].ID)
	require.NotNil(t, reviews[0].Rating)
	assert.Equal(t, 5.0, *reviews[0].Rating)
	assert.Nil(t, reviews[1].Rating)
	assert.Equal(t, "negative", reviews[1].Sentiment)
	require.NotNil(t, reviews[1].SentimentScore)
	assert.Equal(t, -0.4, *reviews[1].SentimentScore)
}

func TestStore_ReviewsForProduct_MissingStars(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"hits": {"hits": [
			{"_id": "r1", "_source": {"product_asin": "B001", "rating": 0, "text": "no stars captured"}},
			{"_id": "r2", "_source": {"product_asin": "B001", "rating": 4, "text": "nice"}}
		]}}`), nil
	})

	reviews, err := store.ReviewsForProduct(context.Background(), "B001")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Nil(t, reviews[0].Rating)
	require.NotNil(t, reviews[1].Rating)
	assert.Equal(t, 4.0, *reviews[1].Rating)
}

func TestStore_ReviewsForProduct_MissingIndex(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound, `{"error": {"type": "index_not_found_exception"}}`), nil
	})

	reviews, err := store.ReviewsForProduct(context.Background(), "B001")
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestStore_ReviewsForProduct_Errors(t *testing.T) {
	tests := []struct {
		name            string
		rt              roundTripFunc
		wantUnavailable bool
	}{
		{
			name: "transport error",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantUnavailable: true,
		},
		{
			name: "cluster error",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusInternalServerError, `{"error": "boom"}`), nil
			},
			wantUnavailable: true,
		},
		{
			name: "bad request",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusBadRequest, `{"error": "parsing_exception"}`), nil
			},
			wantUnavailable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, tt.rt)
			_, err := store.ReviewsForProduct(context.Background(), "B001")
			require.Error(t, err)
			assert.Equal(t, tt.wantUnavailable, errors.Is(err, sentiment.ErrSourceUnavailable))
		})
	}
}

func TestStore_ReviewsForProduct_RequiresProduct(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := store.ReviewsForProduct(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingProduct)
}
