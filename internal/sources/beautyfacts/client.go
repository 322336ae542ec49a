// Package beautyfacts looks up cosmetic products on the Open Beauty Facts API.
package beautyfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cosmetic-insights/internal/analytics/safety"
	httpclient "cosmetic-insights/internal/common/http"
)

const (
	DefaultBaseURL   = "https://world.openbeautyfacts.org/api/v2"
	DefaultUserAgent = "CosmeticSafetyScanner/1.0"

	// SourceName is stamped on ProductInfo built from this API.
	SourceName = "Open Beauty Facts"

	unknown = "Unknown"
)

var (
	ErrInvalidBarcode  = errors.New("invalid barcode")
	ErrProductNotFound = errors.New("product not found")
	ErrUnavailable     = errors.New("open beauty facts unavailable")

	barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)
)

// Config configures the Open Beauty Facts client.
type Config struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client reads products from the Open Beauty Facts API.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient applies defaults for an empty BaseURL, Timeout or UserAgent.
func NewClient(cfg Config, opts ...httpclient.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	all := append([]httpclient.Option{
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithRateLimit(cfg.RatePerSecond),
	}, opts...)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpclient.NewClient(cfg.Timeout, all...),
	}
}

// NormalizeBarcode strips spaces and dashes and checks for 8 to 14 digits.
func NormalizeBarcode(barcode string) (string, error) {
	b := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(barcode))
	if !barcodePattern.MatchString(b) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBarcode, barcode)
	}
	return b, nil
}

type apiResponse struct {
	Status  int      `json:"status"`
	Code    string   `json:"code"`
	Product *Product `json:"product"`
}

// Product is the subset of an Open Beauty Facts product this module reads.
type Product struct {
	Code            string   `json:"code"`
	ProductName     string   `json:"product_name"`
	Brands          string   `json:"brands"`
	IngredientsText string   `json:"ingredients_text"`
	IngredientsTags []string `json:"ingredients_tags"`
	ProductType     string   `json:"product_type,omitempty"`
}

// GetProduct fetches one product by barcode.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*Product, error) {
	code, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/product/%s.json", c.baseURL, code), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// the API answers 404 with a status 0 body for unknown codes
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if body.Status != 1 || body.Product == nil {
		return nil, ErrProductNotFound
	}

	p := body.Product
	if p.Code == "" {
		p.Code = code
	}
	if strings.TrimSpace(p.ProductName) == "" {
		p.ProductName = unknown
	}
	if strings.TrimSpace(p.Brands) == "" {
		p.Brands = unknown
	}
	return p, nil
}

// IngredientNames lists the product's ingredients for evaluation. Taxonomy
// tags ("en:sodium-laureth-sulfate") are preferred; the free text is split on
// commas when no tags are present.
func (p *Product) IngredientNames() []string {
	names := make([]string, 0, len(p.IngredientsTags))
	for _, tag := range p.IngredientsTags {
		if i := strings.Index(tag, ":"); i >= 0 {
			tag = tag[i+1:]
		}
		tag = strings.TrimSpace(strings.ReplaceAll(tag, "-", " "))
		if tag != "" {
			names = append(names, tag)
		}
	}
	if len(names) > 0 {
		return names
	}

	for _, part := range strings.Split(p.IngredientsText, ",") {
		part = strings.Trim(strings.TrimSpace(part), ".*")
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

// ProductInfo identifies the product in a safety report.
func (p *Product) ProductInfo() *safety.ProductInfo {
	return &safety.ProductInfo{
		Name:    p.ProductName,
		Brand:   p.Brands,
		Barcode: p.Code,
		Source:  SourceName,
	}
}
