package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// FetchEnclosure downloads a podcast enclosure to dest. Episodes can be
// hundreds of megabytes, so the body is streamed to disk rather than
// buffered.
func FetchEnclosure(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create enclosure request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch enclosure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("enclosure %s returned status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create enclosure file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write enclosure file: %w", err)
	}
	return nil
}
