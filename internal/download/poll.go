package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// partialSuffix marks a browser download still in progress.
const partialSuffix = ".crdownload"

// ErrDownloadTimeout means no finished file appeared in time.
var ErrDownloadTimeout = errors.New("timed out waiting for download")

func listFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names[e.Name()] = struct{}{}
		}
	}
	return names, nil
}

// newFile returns the single file in dir that is not in before and is not a
// partial download.
func newFile(dir string, before map[string]struct{}) (string, bool, error) {
	now, err := listFiles(dir)
	if err != nil {
		return "", false, err
	}
	var added []string
	for name := range now {
		if _, ok := before[name]; !ok {
			added = append(added, name)
		}
	}
	if len(added) == 1 && !strings.HasSuffix(added[0], partialSuffix) {
		return added[0], true, nil
	}
	return "", false, nil
}

// waitForNewFile polls dir every interval until newFile finds a file. A
// zero timeout waits until ctx is done.
func waitForNewFile(ctx context.Context, dir string, before map[string]struct{}, interval, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		name, ok, err := newFile(dir, before)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%s: %w", dir, ErrDownloadTimeout)
			}
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
