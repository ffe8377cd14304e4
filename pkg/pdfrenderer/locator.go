package pdfrenderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxRemoteSize caps documents fetched over HTTP.
const maxRemoteSize = 512 << 20

// resolved is a locator turned into something a backend can open: either a
// local path or fetched bytes.
type resolved struct {
	path string
	data []byte
}

// resolve turns Params into bytes or a local path.
func resolve(ctx context.Context, client *http.Client, params Params) (resolved, error) {
	if params.Data != nil {
		return resolved{data: params.Data}, nil
	}
	if params.Locator == "" {
		return resolved{}, errors.New("document has neither data nor locator")
	}

	u, err := url.Parse(params.Locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return resolved{path: params.Locator}, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return resolved{path: u.Path}, nil
	case "http", "https":
		data, err := fetch(ctx, client, u.String())
		if err != nil {
			return resolved{}, err
		}
		return resolved{data: data}, nil
	default:
		return resolved{}, fmt.Errorf("unsupported locator scheme %q", u.Scheme)
	}
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if len(data) > maxRemoteSize {
		return nil, fmt.Errorf("fetch %s: document larger than %d bytes", rawURL, maxRemoteSize)
	}
	return data, nil
}
