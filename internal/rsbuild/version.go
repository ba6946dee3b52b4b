package rsbuild

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func newHttpClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Default is 10s; GitHub is occasionally slow from behind NAT on dev boards.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// releaseInfo is the subset of the GitHub release object we care about.
type releaseInfo struct {
	TagName string `json:"tag_name"`
}

// resolveVersion determines which release tag to build. A tag supplied on
// the command line is returned verbatim without touching the network;
// otherwise the latest published release is looked up on the release index.
func resolveVersion(ctx context.Context, req *BuildRequest) (string, error) {
	if req.Version != "" {
		return req.Version, nil
	}

	stagePrintln(colSuccess, "Querying latest librealsense release")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseAPI, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Accept", "application/vnd.github+json")

	resp, err := newHttpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("release index query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release index returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading release index response: %w", err)
	}

	var rel releaseInfo
	if err := json.Unmarshal(body, &rel); err != nil {
		return "", fmt.Errorf("parsing release index response: %w", err)
	}

	tag := strings.TrimSpace(rel.TagName)
	if tag == "" {
		return "", fmt.Errorf("release index response has no tag_name")
	}

	debugf("Resolved latest release: %s\n", tag)
	return tag, nil
}
