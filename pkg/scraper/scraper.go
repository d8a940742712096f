// Package scraper collects product reviews from external sources and
// composes them into a single provenance-labeled text for analysis. The
// scrape step is optional and best-effort: a failing source contributes
// nothing rather than failing the workflow.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ReviewItem is one collected review or comment.
type ReviewItem struct {
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Source fetches reviews for a product by name.
type Source interface {
	Name() string
	Fetch(ctx context.Context, productName string, maxItems int) ([]ReviewItem, error)
}

// Scraper aggregates reviews across registered sources.
type Scraper struct {
	sources map[string]Source
	logger  *slog.Logger
}

// New creates a scraper over the given sources.
func New(logger *slog.Logger, sources ...Source) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scraper{sources: make(map[string]Source, len(sources)), logger: logger}
	for _, src := range sources {
		s.sources[src.Name()] = src
	}
	return s
}

// SourceNames lists the registered source names.
func (s *Scraper) SourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	return names
}

// Collect fetches up to maxItemsPerSource reviews from each requested
// source. Unknown source names and per-source failures are logged and
// skipped.
func (s *Scraper) Collect(ctx context.Context, productName string, sourceNames []string, maxItemsPerSource int) []ReviewItem {
	if len(sourceNames) == 0 {
		sourceNames = s.SourceNames()
	}
	if maxItemsPerSource <= 0 {
		maxItemsPerSource = 10
	}

	var items []ReviewItem
	for _, name := range sourceNames {
		src, ok := s.sources[name]
		if !ok {
			s.logger.Warn("unknown review source requested", "source", name)
			continue
		}

		fetched, err := src.Fetch(ctx, productName, maxItemsPerSource)
		if err != nil {
			s.logger.Warn("review source failed", "source", name, "error", err)
			continue
		}
		s.logger.Info("reviews collected", "source", name, "count", len(fetched))
		items = append(items, fetched...)
	}
	return items
}

// Compose joins collected reviews into one analysis input, each labeled
// with its source.
func Compose(items []ReviewItem) string {
	var b strings.Builder
	for i, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s review %d] %s", item.Source, i+1, text)
	}
	return b.String()
}
