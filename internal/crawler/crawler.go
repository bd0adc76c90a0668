// Package crawler walks the configured feeds and turns each new entry
// into a Markdown summary on disk.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shee/briefcast/internal/feeds"
	"github.com/shee/briefcast/internal/media"
	"github.com/shee/briefcast/internal/prompt"
)

// Summarizer produces a Markdown summary from an audio payload. ok=false
// with a nil error means the model could not produce usable text and the
// entry should be skipped rather than retried.
type Summarizer interface {
	SummarizeAudio(ctx context.Context, audio []byte, prompt string) (text string, ok bool, err error)
}

// VideoSource probes and downloads YouTube videos.
type VideoSource interface {
	Probe(ctx context.Context, url string) (*media.Metadata, error)
	DownloadAudio(ctx context.Context, url, dest string) error
}

// Store is the processed-entry ledger.
type Store interface {
	Seen(entryID string) (bool, error)
	MarkProcessed(entryID, feedURL, title string) error
}

type Crawler struct {
	Feeds      []string
	Window     time.Duration
	ItemDelay  time.Duration
	YouTubeDir string
	PodcastDir string

	Summarizer Summarizer
	Videos     VideoSource
	Store      Store
	HTTPClient *http.Client
	Notify     func(string)

	// test seams
	now   func() time.Time
	sleep func(time.Duration)
}

func (c *Crawler) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now().UTC()
}

func (c *Crawler) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	if c.sleep != nil {
		c.sleep(d)
		return
	}
	time.Sleep(d)
}

func (c *Crawler) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Crawler) notify(msg string) {
	if c.Notify != nil {
		c.Notify(msg)
	}
}

// Run processes every feed once. Feed and entry failures are logged and
// skipped; only context cancellation stops the run.
func (c *Crawler) Run(ctx context.Context) error {
	now := c.clock()
	since := now.Add(-c.Window)

	for _, feedURL := range c.Feeds {
		if err := ctx.Err(); err != nil {
			return err
		}

		slog.Info("Crawling feed", "url", feedURL)
		entries, err := feeds.Resolve(ctx, c.client(), feedURL)
		if err != nil {
			slog.Warn("Skipping feed", "url", feedURL, "error", err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !c.inWindow(entry, since, now) {
				continue
			}

			seen, err := c.Store.Seen(entry.ID)
			if err != nil {
				slog.Warn("Ledger lookup failed", "entry", entry.ID, "error", err)
				continue
			}
			if seen {
				continue
			}

			switch {
			case entry.IsVideo():
				if err := c.processVideo(ctx, feedURL, entry); err != nil {
					slog.Warn("Video entry failed", "title", entry.Title, "error", err)
				}
			case entry.IsPodcast():
				if err := c.processPodcast(ctx, feedURL, entry); err != nil {
					slog.Warn("Podcast entry failed", "title", entry.Title, "error", err)
				}
			default:
				slog.Info("Skipping entry of unknown type", "title", entry.Title)
				continue
			}

			// Spread requests out so the API is not hammered.
			c.pause(c.ItemDelay)
		}
	}

	return nil
}

func (c *Crawler) inWindow(entry feeds.Entry, since, now time.Time) bool {
	if entry.Published.IsZero() || entry.Published.Before(since) {
		return false
	}
	if entry.Published.After(now) {
		slog.Info("Skipping scheduled premiere", "title", entry.Title)
		return false
	}
	return true
}

func (c *Crawler) processVideo(ctx context.Context, feedURL string, entry feeds.Entry) error {
	url := "https://youtu.be/" + entry.VideoID

	meta, err := c.Videos.Probe(ctx, url)
	if err != nil {
		return err
	}
	if !meta.IsStandardVideo() {
		// Not marked processed: an upcoming premiere becomes a regular
		// video once it airs, so it must stay eligible for the next run.
		slog.Info("Skipping non-standard video", "id", entry.VideoID, "title", entry.Title)
		return nil
	}

	channel := meta.Uploader
	if channel == "" {
		channel = "unknown"
	}

	tmpDir, err := os.MkdirTemp("", "briefcast-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, entry.VideoID+".mp3")
	if err := c.Videos.DownloadAudio(ctx, url, audioPath); err != nil {
		return err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read downloaded audio: %w", err)
	}

	p := prompt.Build(prompt.Meta{
		OriginalTitle: entry.Title,
		Channel:       channel,
		URL:           url,
		Published:     entry.Published.UTC().Format("2006/01/02"),
	})

	if err := c.summarizeAndWrite(ctx, feedURL, entry, audio, p, c.YouTubeDir); err != nil {
		return err
	}
	c.notify("YouTube: " + entry.Title)
	slog.Info("Summarized video", "title", entry.Title)
	return nil
}

func (c *Crawler) processPodcast(ctx context.Context, feedURL string, entry feeds.Entry) error {
	channel := entry.Author
	if channel == "" {
		channel = "unknown"
	}

	tmpDir, err := os.MkdirTemp("", "briefcast-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, "episode.mp3")
	if err := media.FetchEnclosure(ctx, c.client(), entry.EnclosureURL, audioPath); err != nil {
		return err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read downloaded audio: %w", err)
	}

	p := prompt.Build(prompt.Meta{
		OriginalTitle: entry.Title,
		Channel:       channel,
		URL:           entry.Link,
		Published:     entry.Published.UTC().Format("2006/01/02"),
	})

	if err := c.summarizeAndWrite(ctx, feedURL, entry, audio, p, c.PodcastDir); err != nil {
		return err
	}
	c.notify("Podcast: " + entry.Title)
	slog.Info("Summarized podcast", "title", entry.Title)
	return nil
}

// summarizeAndWrite runs the model and persists the result. An entry the
// model gives up on is still marked processed so it is not retried forever;
// transport failures leave it unmarked for the next run.
func (c *Crawler) summarizeAndWrite(ctx context.Context, feedURL string, entry feeds.Entry, audio []byte, p, outDir string) error {
	text, ok, err := c.Summarizer.SummarizeAudio(ctx, audio, p)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("Model produced no usable summary", "title", entry.Title)
		return c.Store.MarkProcessed(entry.ID, feedURL, entry.Title)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, outputFilename(entry))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return c.Store.MarkProcessed(entry.ID, feedURL, entry.Title)
}
