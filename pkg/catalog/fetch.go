// CLAUDE:SUMMARY Remote catalog retrieval: HTTP download with retries and ZIP extraction into a scratch directory.
package catalog

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// IsRemote reports whether p is an http(s) URL.
func IsRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// localize makes p readable from disk. Remote catalogs are downloaded into a
// scratch directory that cleanup removes; ZIP archives are extracted and the
// first supported file (by name) is used.
func localize(ctx context.Context, p string) (local string, cleanup func(), err error) {
	cleanup = func() {}
	if IsRemote(p) {
		dir, err := os.MkdirTemp("", "districtmap-*")
		if err != nil {
			return "", cleanup, fmt.Errorf("create download dir: %w", err)
		}
		cleanup = func() { os.RemoveAll(dir) }

		u, err := url.Parse(p)
		if err != nil {
			cleanup()
			return "", func() {}, fmt.Errorf("parse url: %w", err)
		}
		name := path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			name = "catalog"
		}
		dest := filepath.Join(dir, name)
		if err := downloadFile(ctx, p, dest); err != nil {
			cleanup()
			return "", func() {}, err
		}
		p = dest
	}

	if !strings.EqualFold(filepath.Ext(p), ".zip") {
		return p, cleanup, nil
	}

	dir, err := os.MkdirTemp("", "districtmap-zip-*")
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("create extract dir: %w", err)
	}
	prev := cleanup
	cleanup = func() { os.RemoveAll(dir); prev() }

	paths, err := unzipFile(p, dir)
	if err != nil {
		cleanup()
		return "", func() {}, err
	}
	sort.Strings(paths)
	for _, extracted := range paths {
		if _, err := formatFor(extracted, Spec{}); err == nil {
			return extracted, cleanup, nil
		}
	}
	cleanup()
	return "", func() {}, fmt.Errorf("no catalog file found in %s", p)
}

// retryUnit scales download backoff; tests shrink it.
var retryUnit = time.Second

const downloadAttempts = 3

// downloadFile fetches url into dest, retrying transport errors, non-200
// answers and truncated bodies with exponential backoff.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < downloadAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt)) * retryUnit):
			}
		}
		retry, err := fetchOnce(ctx, client, url, dest)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("download %s failed after %d attempts: %w", url, downloadAttempts, lastErr)
}

// fetchOnce performs one GET. retry is false for local failures that
// another attempt cannot fix.
func fetchOnce(ctx context.Context, client *http.Client, url, dest string) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return false, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return true, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return false, nil
}

// unzipFile extracts a ZIP archive under destDir, keeping each member's
// relative path, and returns the extracted file paths. Members that would
// land outside destDir are rejected.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("zip entry %q escapes extract dir", f.Name)
		}
		dest := filepath.Join(destDir, rel)
		if err := extractEntry(f, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

func extractEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
