package feeds

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Entry is a feed item normalized across Atom (YouTube channel feeds) and
// RSS 2.0 (podcast feeds).
type Entry struct {
	ID            string
	Title         string
	Author        string
	Link          string
	Published     time.Time
	VideoID       string // set for YouTube Atom entries
	EnclosureURL  string
	EnclosureType string
}

// IsVideo reports whether the entry came from a YouTube channel feed.
func (e Entry) IsVideo() bool { return e.VideoID != "" }

// IsPodcast reports whether the entry carries a downloadable audio enclosure.
func (e Entry) IsPodcast() bool {
	return e.EnclosureURL != "" &&
		(e.EnclosureType == "" || strings.HasPrefix(e.EnclosureType, "audio/"))
}

// ErrUnsupportedFormat marks a document whose root element is neither an
// Atom <feed> nor an RSS <rss>; the caller may fall back to feed discovery.
var ErrUnsupportedFormat = errors.New("unsupported feed format")

// --- Atom (YouTube publishes Atom with the yt:videoId extension) ---

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// --- RSS 2.0 ---

type rssFeed struct {
	Channel struct {
		Title  string    `xml:"title"`
		Author string    `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
		Items  []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID  string `xml:"guid"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
	// The namespaced field must come first: the decoder takes the first
	// matching field, and an un-namespaced name matches any namespace.
	ITunesAuthor string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	Author       string        `xml:"author"`
	PubDate      string        `xml:"pubDate"`
	Enclosure    *rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// Parse decodes a feed document, dispatching on its root element.
func Parse(data []byte) ([]Entry, error) {
	switch rootName(data) {
	case "feed":
		return parseAtom(data)
	case "rss":
		return parseRSS(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func rootName(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local
		}
	}
}

func parseAtom(data []byte) ([]Entry, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, ae := range feed.Entries {
		e := Entry{
			ID:      ae.ID,
			Title:   ae.Title,
			Author:  ae.Author.Name,
			VideoID: ae.VideoID,
		}
		for _, l := range ae.Links {
			switch l.Rel {
			case "", "alternate":
				if e.Link == "" {
					e.Link = l.Href
				}
			case "enclosure":
				e.EnclosureURL = l.Href
				e.EnclosureType = l.Type
			}
		}
		e.Published = parseAtomTime(ae.Published, ae.Updated)
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRSS(data []byte) ([]Entry, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse rss feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		e := Entry{
			ID:    item.GUID,
			Title: item.Title,
			Link:  item.Link,
		}

		// Podcast feeds often only name the author at the iTunes level.
		switch {
		case item.Author != "":
			e.Author = item.Author
		case item.ITunesAuthor != "":
			e.Author = item.ITunesAuthor
		default:
			e.Author = feed.Channel.Author
		}

		if item.Enclosure != nil {
			e.EnclosureURL = item.Enclosure.URL
			e.EnclosureType = item.Enclosure.Type
		}
		if e.ID == "" {
			e.ID = e.EnclosureURL
		}
		if e.Link == "" {
			e.Link = e.EnclosureURL
		}
		e.Published = parsePubDate(item.PubDate)
		entries = append(entries, e)
	}
	return entries, nil
}

func parseAtomTime(published, updated string) time.Time {
	for _, s := range []string{published, updated} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// pubDateFormats covers the date styles seen in podcast feeds in the wild.
var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Fetch downloads and parses a feed URL.
func Fetch(ctx context.Context, client *http.Client, url string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return Parse(body)
}

// Resolve fetches url as a feed. When the URL turns out to serve an HTML
// page instead (a channel homepage or blog), it probes the page for an
// advertised feed link and fetches that.
func Resolve(ctx context.Context, client *http.Client, url string) ([]Entry, error) {
	entries, err := Fetch(ctx, client, url)
	if !errors.Is(err, ErrUnsupportedFormat) {
		return entries, err
	}

	feedURL := Discover(url)
	if feedURL == "" {
		return nil, fmt.Errorf("%s: %w and no feed link advertised", url, ErrUnsupportedFormat)
	}
	return Fetch(ctx, client, feedURL)
}
