package catalog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

var probeClient = &http.Client{
	Timeout: 30 * time.Second,
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// Probe checks that a catalog is reachable without loading it. Remote
// catalogs get a HEAD request and the HTTP status is returned (0 on network
// error); local files are stat'ed and report 200 when present.
func Probe(ctx context.Context, p string) (int, error) {
	if !IsRemote(p) {
		if _, err := os.Stat(p); err != nil {
			return 0, fmt.Errorf("stat %s: %w", p, err)
		}
		return http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", p, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HEAD %s: status %d", p, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
