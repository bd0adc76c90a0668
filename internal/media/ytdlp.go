// Package media fetches audio for feed entries, either by extracting it
// from a YouTube video with yt-dlp or by downloading a podcast enclosure.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultProbeTimeout = 2 * time.Minute
	defaultFetchTimeout = 10 * time.Minute

	// Anything at or under a minute is treated as a Short.
	shortsMaxDuration = 60
)

// Metadata is the subset of yt-dlp's JSON output needed to classify a
// video and label its summary.
type Metadata struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Uploader     string  `json:"uploader"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	IsLive       bool    `json:"is_live"`
	WasLive      bool    `json:"was_live"`
	LiveStatus   string  `json:"live_status"`
	Availability string  `json:"availability"`
}

// IsStandardVideo reports whether the video is a regular upload worth
// summarizing. Shorts (short or portrait), live streams past and present,
// and scheduled premieres are all excluded.
func (m Metadata) IsStandardVideo() bool {
	shorts := m.Duration <= shortsMaxDuration || (m.Height > 0 && m.Width > 0 && m.Height > m.Width)

	stream := m.IsLive || m.WasLive
	switch m.LiveStatus {
	case "is_live", "was_live", "is_upcoming":
		stream = true
	}

	scheduled := m.Availability == "scheduled" || m.LiveStatus == "is_upcoming"

	return !shorts && !stream && !scheduled
}

// Downloader wraps the yt-dlp executable.
type Downloader struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp" on $PATH.
	Path string

	// ProbeTimeout bounds metadata extraction, FetchTimeout bounds
	// audio downloads.
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

// NewDownloader returns a Downloader with default timeouts.
func NewDownloader() *Downloader {
	return &Downloader{
		Path:         defaultYtdlpPath,
		ProbeTimeout: defaultProbeTimeout,
		FetchTimeout: defaultFetchTimeout,
	}
}

func (d *Downloader) path() string {
	if d.Path != "" {
		return d.Path
	}
	return defaultYtdlpPath
}

// Probe runs `yt-dlp -j --skip-download` and parses the metadata.
func (d *Downloader) Probe(ctx context.Context, url string) (*Metadata, error) {
	timeout := d.ProbeTimeout
	if timeout == 0 {
		timeout = defaultProbeTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, d.path(), "-j", "--skip-download", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp probe %s: %w: %s", url, err, lastLine(stderr.String()))
	}

	var meta Metadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("yt-dlp probe %s: invalid JSON: %w", url, err)
	}
	return &meta, nil
}

// DownloadAudio runs `yt-dlp -x --audio-format mp3` and writes the
// extracted audio to dest.
func (d *Downloader) DownloadAudio(ctx context.Context, url, dest string) error {
	timeout := d.FetchTimeout
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, d.path(), "-x", "--audio-format", "mp3", "-o", dest, url)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp download %s: %w: %s", url, err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine returns the final non-empty line of s, the part of yt-dlp's
// stderr that actually names the failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "unknown error"
}
