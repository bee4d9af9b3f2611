package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"racebot/pkg/logx"
)

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item><title>First headline</title></item>
    <item><title>Second headline</title></item>
    <item><title>  </title></item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Feed</title>
  <entry><title>Atom headline</title></entry>
</feed>`

func TestHeadlinesRSS(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	f := New(Config{Feeds: []string{srv.URL}, Limit: 10}, logx.Nop())
	got, err := f.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if len(got) != 2 || got[0] != "First headline" || got[1] != "Second headline" {
		t.Fatalf("unexpected headlines: %v", got)
	}
}

func TestHeadlinesAtom(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	f := New(Config{Feeds: []string{srv.URL}}, logx.Nop())
	got, err := f.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if len(got) != 1 || got[0] != "Atom headline" {
		t.Fatalf("unexpected headlines: %v", got)
	}
}

func TestHeadlinesLimitAcrossFeeds(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	f := New(Config{Feeds: []string{srv.URL, srv.URL}, Limit: 3}, logx.Nop())
	got, err := f.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit of 3, got %d: %v", len(got), got)
	}
}

func TestHeadlinesBrokenFeedSkipped(t *testing.T) {
	t.Parallel()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer good.Close()

	f := New(Config{Feeds: []string{bad.URL, good.URL}}, logx.Nop())
	got, err := f.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected headline from surviving feed, got %v", got)
	}
}

func TestHeadlinesAllFeedsFailed(t *testing.T) {
	t.Parallel()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	f := New(Config{Feeds: []string{bad.URL}}, logx.Nop())
	if _, err := f.Headlines(context.Background()); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestHeadlinesNoFeedsConfigured(t *testing.T) {
	t.Parallel()
	f := New(Config{}, logx.Nop())
	got, err := f.Headlines(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected empty result, got %v err=%v", got, err)
	}
}
