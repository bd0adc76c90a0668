package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const youtubeAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Some Channel</title>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <title>A Video About Things</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=dQw4w9WgXcQ"/>
    <author><name>Some Channel</name></author>
    <published>2026-08-27T12:00:00+00:00</published>
    <updated>2026-08-27T12:30:00+00:00</updated>
  </entry>
</feed>`

const podcastRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Tech Talk Podcast</title>
    <itunes:author>Tech Talk Crew</itunes:author>
    <item>
      <guid>ep-042</guid>
      <title>Episode 42: Concurrency</title>
      <link>https://techtalk.example/ep42</link>
      <pubDate>Thu, 27 Aug 2026 08:00:00 +0000</pubDate>
      <enclosure url="https://techtalk.example/ep42.mp3" type="audio/mpeg" length="1234"/>
    </item>
    <item>
      <guid>ep-notes</guid>
      <title>Show notes only</title>
      <link>https://techtalk.example/notes</link>
      <pubDate>Thu, 27 Aug 2026 09:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestParseYouTubeAtom(t *testing.T) {
	entries, err := Parse([]byte(youtubeAtom))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "yt:video:dQw4w9WgXcQ", e.ID)
	assert.Equal(t, "dQw4w9WgXcQ", e.VideoID)
	assert.Equal(t, "A Video About Things", e.Title)
	assert.Equal(t, "Some Channel", e.Author)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", e.Link)
	assert.Equal(t, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC), e.Published)
	assert.True(t, e.IsVideo())
	assert.False(t, e.IsPodcast())
}

func TestParsePodcastRSS(t *testing.T) {
	entries, err := Parse([]byte(podcastRSS))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ep := entries[0]
	assert.Equal(t, "ep-042", ep.ID)
	assert.Equal(t, "Tech Talk Crew", ep.Author, "author falls back to itunes:author")
	assert.Equal(t, "https://techtalk.example/ep42.mp3", ep.EnclosureURL)
	assert.Equal(t, "audio/mpeg", ep.EnclosureType)
	assert.Equal(t, time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC), ep.Published)
	assert.False(t, ep.IsVideo())
	assert.True(t, ep.IsPodcast())

	notes := entries[1]
	assert.False(t, notes.IsPodcast(), "items without enclosures are not podcast episodes")
	assert.False(t, notes.IsVideo())
}

func TestParseUnsupportedRoot(t *testing.T) {
	_, err := Parse([]byte(`<html><head></head><body>not a feed</body></html>`))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParsePubDateFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Thu, 27 Aug 2026 08:00:00 +0000", time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)},
		{"Thu, 27 Aug 2026 08:00:00 GMT", time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)},
		{"Thu, 2 Jul 2026 01:02:03 +0900", time.Date(2026, 7, 1, 16, 2, 3, 0, time.UTC)},
		{"garbage", time.Time{}},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		got := parsePubDate(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("parsePubDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := "- https://www.youtube.com/feeds/videos.xml?channel_id=UC123\n- \"  \"\n- https://techtalk.example/feed.xml\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/feeds/videos.xml?channel_id=UC123",
		"https://techtalk.example/feed.xml",
	}, urls)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, podcastRSS)
	}))
	defer srv.Close()

	entries, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestResolveDiscoversFeedFromHTML(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head>
			<link rel="alternate" type="application/rss+xml" href="/feed.xml">
		</head><body>blog</body></html>`)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, podcastRSS)
	})

	entries, err := Resolve(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://blog.example/post", "/feed.xml", "https://blog.example/feed.xml"},
		{"https://blog.example/a/b", "feed.xml", "https://blog.example/a/feed.xml"},
		{"https://blog.example", "https://other.example/rss", "https://other.example/rss"},
	}
	for _, tt := range tests {
		if got := resolveURL(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
