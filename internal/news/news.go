// Package news pulls recent headlines from RSS/Atom feeds. Headlines are
// used only as generation context, so partial results are fine: a broken
// feed is logged and skipped.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"racebot/pkg/logx"
)

type Config struct {
	Feeds   []string
	Limit   int
	Timeout time.Duration
}

type Fetcher struct {
	cfg Config
	hc  *http.Client
	log logx.Logger
}

func New(cfg Config, log logx.Logger) *Fetcher {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{
		cfg: cfg,
		hc:  &http.Client{Timeout: timeout},
		log: log,
	}
}

// rssDoc covers both RSS 2.0 (channel/item) and Atom (entry) layouts; xml
// decoding just leaves the absent branch empty.
type rssDoc struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
	Entries []struct {
		Title string `xml:"title"`
	} `xml:"entry"`
}

// Headlines returns up to the configured limit of titles across all feeds,
// in feed order. An error is returned only when every feed fails.
func (f *Fetcher) Headlines(ctx context.Context) ([]string, error) {
	if len(f.cfg.Feeds) == 0 {
		return nil, nil
	}

	var (
		out    []string
		failed int
	)
	for _, feed := range f.cfg.Feeds {
		if len(out) >= f.cfg.Limit {
			break
		}
		titles, err := f.fetchFeed(ctx, feed)
		if err != nil {
			failed++
			f.log.Warn("feed fetch failed", logx.String("feed", feed), logx.Err(err))
			continue
		}
		for _, t := range titles {
			if len(out) >= f.cfg.Limit {
				break
			}
			out = append(out, t)
		}
	}
	if failed == len(f.cfg.Feeds) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}
	return out, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "racebot/1.0")

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var doc rssDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var titles []string
	for _, it := range doc.Channel.Items {
		if t := strings.TrimSpace(it.Title); t != "" {
			titles = append(titles, t)
		}
	}
	for _, e := range doc.Entries {
		if t := strings.TrimSpace(e.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}
