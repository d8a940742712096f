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

// YouTubeSource collects video comments mentioning a product via the
// YouTube Data API v3. It searches for a matching video first, then reads
// that video's top-level comment threads.
type YouTubeSource struct {
	apiKey     string
	host       string
	httpClient *httpclient.Client
}

// YouTubeConfig configures the source.
type YouTubeConfig struct {
	APIKey  string
	Host    string // defaults to the public Data API endpoint
	Timeout time.Duration
}

// NewYouTubeSource creates the source. The API key is required at fetch
// time, not construction time.
func NewYouTubeSource(cfg YouTubeConfig) *YouTubeSource {
	host := cfg.Host
	if host == "" {
		host = "https://www.googleapis.com/youtube/v3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &YouTubeSource{
		apiKey: cfg.APIKey,
		host:   host,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(2),
		),
	}
}

func (s *YouTubeSource) Name() string {
	return "youtube"
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubeCommentsResponse struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextOriginal string `json:"textOriginal"`
					AuthorName   string `json:"authorDisplayName"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *YouTubeSource) Fetch(ctx context.Context, productName string, maxItems int) ([]ReviewItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("youtube api key not configured")
	}

	videoID, err := s.searchVideo(ctx, productName+" review")
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"part":       {"snippet"},
		"videoId":    {videoID},
		"maxResults": {fmt.Sprintf("%d", maxItems)},
		"order":      {"relevance"},
		"key":        {s.apiKey},
	}

	var parsed youtubeCommentsResponse
	if err := s.getJSON(ctx, s.host+"/commentThreads?"+query.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to fetch youtube comments: %w", err)
	}

	items := make([]ReviewItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		snippet := item.Snippet.TopLevelComment.Snippet
		if snippet.TextOriginal == "" {
			continue
		}
		items = append(items, ReviewItem{
			Text:   snippet.TextOriginal,
			Source: s.Name(),
			Metadata: map[string]string{
				"video_id": videoID,
				"author":   snippet.AuthorName,
			},
		})
		if len(items) >= maxItems {
			break
		}
	}
	return items, nil
}

func (s *YouTubeSource) searchVideo(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {"1"},
		"key":        {s.apiKey},
	}

	var parsed youtubeSearchResponse
	if err := s.getJSON(ctx, s.host+"/search?"+params.Encode(), &parsed); err != nil {
		return "", fmt.Errorf("failed to search youtube: %w", err)
	}
	if len(parsed.Items) == 0 || parsed.Items[0].ID.VideoID == "" {
		return "", fmt.Errorf("no youtube video found for query %q", query)
	}
	return parsed.Items[0].ID.VideoID, nil
}

func (s *YouTubeSource) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

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
