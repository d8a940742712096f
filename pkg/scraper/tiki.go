package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kadirpekel/sentimesh/pkg/httpclient"
)

// TikiSource collects customer reviews from the Tiki marketplace API. It
// resolves the product name to a product id, then pages that product's
// reviews.
type TikiSource struct {
	host       string
	httpClient *httpclient.Client
}

// TikiConfig configures the source.
type TikiConfig struct {
	Host    string // defaults to the public marketplace API
	Timeout time.Duration
}

// NewTikiSource creates the source.
func NewTikiSource(cfg TikiConfig) *TikiSource {
	host := cfg.Host
	if host == "" {
		host = "https://tiki.vn/api/v2"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &TikiSource{
		host: host,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(2),
		),
	}
}

func (s *TikiSource) Name() string {
	return "tiki"
}

type tikiSearchResponse struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type tikiReviewsResponse struct {
	Data []struct {
		Content string `json:"content"`
		Rating  int    `json:"rating"`
	} `json:"data"`
}

func (s *TikiSource) Fetch(ctx context.Context, productName string, maxItems int) ([]ReviewItem, error) {
	productID, err := s.searchProduct(ctx, productName)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"product_id": {fmt.Sprintf("%d", productID)},
		"limit":      {fmt.Sprintf("%d", maxItems)},
		"sort":       {"score|desc"},
	}

	var parsed tikiReviewsResponse
	if err := s.getJSON(ctx, s.host+"/reviews?"+query.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to fetch tiki reviews: %w", err)
	}

	items := make([]ReviewItem, 0, len(parsed.Data))
	for _, review := range parsed.Data {
		if review.Content == "" {
			continue
		}
		items = append(items, ReviewItem{
			Text:   review.Content,
			Source: s.Name(),
			Metadata: map[string]string{
				"product_id": fmt.Sprintf("%d", productID),
				"rating":     fmt.Sprintf("%d", review.Rating),
			},
		})
		if len(items) >= maxItems {
			break
		}
	}
	return items, nil
}

func (s *TikiSource) searchProduct(ctx context.Context, productName string) (int64, error) {
	query := url.Values{
		"q":     {productName},
		"limit": {"1"},
	}

	var parsed tikiSearchResponse
	if err := s.getJSON(ctx, s.host+"/products?"+query.Encode(), &parsed); err != nil {
		return 0, fmt.Errorf("failed to search tiki: %w", err)
	}
	if len(parsed.Data) == 0 {
		return 0, fmt.Errorf("no tiki product found for %q", productName)
	}
	return parsed.Data[0].ID, nil
}

func (s *TikiSource) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "sentimesh/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
