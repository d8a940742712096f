package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	items []ReviewItem
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, productName string, maxItems int) ([]ReviewItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > maxItems {
		return f.items[:maxItems], nil
	}
	return f.items, nil
}

func TestCollect(t *testing.T) {
	s := New(nil,
		&fakeSource{name: "youtube", items: []ReviewItem{{Text: "great", Source: "youtube"}}},
		&fakeSource{name: "tiki", items: []ReviewItem{{Text: "ok", Source: "tiki"}, {Text: "bad", Source: "tiki"}}},
	)

	items := s.Collect(context.Background(), "phone", []string{"youtube", "tiki"}, 10)
	assert.Len(t, items, 3)
}

func TestCollectSkipsFailingSource(t *testing.T) {
	s := New(nil,
		&fakeSource{name: "youtube", err: fmt.Errorf("quota exceeded")},
		&fakeSource{name: "tiki", items: []ReviewItem{{Text: "fine", Source: "tiki"}}},
	)

	items := s.Collect(context.Background(), "phone", []string{"youtube", "tiki"}, 10)
	require.Len(t, items, 1)
	assert.Equal(t, "tiki", items[0].Source)
}

func TestCollectUnknownSource(t *testing.T) {
	s := New(nil, &fakeSource{name: "tiki", items: []ReviewItem{{Text: "fine", Source: "tiki"}}})

	items := s.Collect(context.Background(), "phone", []string{"amazon"}, 10)
	assert.Empty(t, items)
}

func TestCollectHonorsMaxItems(t *testing.T) {
	many := make([]ReviewItem, 20)
	for i := range many {
		many[i] = ReviewItem{Text: fmt.Sprintf("review %d", i), Source: "tiki"}
	}
	s := New(nil, &fakeSource{name: "tiki", items: many})

	items := s.Collect(context.Background(), "phone", []string{"tiki"}, 5)
	assert.Len(t, items, 5)
}

func TestCompose(t *testing.T) {
	text := Compose([]ReviewItem{
		{Text: "love it", Source: "youtube"},
		{Text: "  ", Source: "tiki"}, // blank entries dropped
		{Text: "broke fast", Source: "tiki"},
	})

	assert.Contains(t, text, "[youtube review 1] love it")
	assert.Contains(t, text, "[tiki review 3] broke fast")
	assert.NotContains(t, text, "review 2")
}

func TestComposeEmpty(t *testing.T) {
	assert.Equal(t, "", Compose(nil))
}

func TestTikiSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			assert.Equal(t, "acme phone", r.URL.Query().Get("q"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"id": 42, "name": "Acme Phone"}},
			})
		case "/reviews":
			assert.Equal(t, "42", r.URL.Query().Get("product_id"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"content": "solid phone", "rating": 5},
					{"content": "", "rating": 1}, // empty content dropped
					{"content": "screen cracked", "rating": 2},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewTikiSource(TikiConfig{Host: srv.URL})
	items, err := src.Fetch(context.Background(), "acme phone", 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "solid phone", items[0].Text)
	assert.Equal(t, "tiki", items[0].Source)
	assert.Equal(t, "5", items[0].Metadata["rating"])
}

func TestTikiSourceNoProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer srv.Close()

	src := NewTikiSource(TikiConfig{Host: srv.URL})
	_, err := src.Fetch(context.Background(), "nonexistent", 10)
	assert.Error(t, err)
}

func TestYouTubeSourceRequiresAPIKey(t *testing.T) {
	src := NewYouTubeSource(YouTubeConfig{})
	_, err := src.Fetch(context.Background(), "phone", 10)
	assert.Error(t, err)
}

func TestYouTubeSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{
					{"id": map[string]string{"videoId": "vid-1"}},
				},
			})
		case "/commentThreads":
			assert.Equal(t, "vid-1", r.URL.Query().Get("videoId"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{
					{"snippet": map[string]interface{}{
						"topLevelComment": map[string]interface{}{
							"snippet": map[string]interface{}{
								"textOriginal":      "battery lasts forever",
								"authorDisplayName": "reviewer",
							},
						},
					}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewYouTubeSource(YouTubeConfig{APIKey: "test-key", Host: srv.URL})
	items, err := src.Fetch(context.Background(), "acme phone", 5)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "battery lasts forever", items[0].Text)
	assert.Equal(t, "youtube", items[0].Source)
	assert.Equal(t, "vid-1", items[0].Metadata["video_id"])
}
