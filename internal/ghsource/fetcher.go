// Package ghsource fetches governance documents from a GitHub repository
// directory so they can be pushed through the ingestion pipeline.
package ghsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Fetcher lists and downloads text documents from one repository path.
type Fetcher struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a fetcher for the given repository directory. GitHub's
// primary and secondary rate limits are handled with automatic waiting; if
// GITHUB_TOKEN is set the client authenticates for higher limits.
func NewFetcher(owner, repo, basePath string) (*Fetcher, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate limit client: %w", err)
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}, nil
}

// isDocument reports whether a repository file is an ingestible document.
func isDocument(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".txt")
}

// ListDocuments recursively lists all .md and .txt files under the base
// path, as paths relative to it.
func (f *Fetcher) ListDocuments(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	_, entries, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fullPath, err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.Type == nil || entry.Name == nil {
			continue
		}

		relPath := path.Join(relativePath, *entry.Name)
		switch *entry.Type {
		case "file":
			if isDocument(*entry.Name) {
				docs = append(docs, relPath)
			}
		case "dir":
			children, err := f.listRecursive(ctx, path.Join(fullPath, *entry.Name), relPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, children...)
		}
	}

	return docs, nil
}

// FetchDocument downloads the raw content of one document.
func (f *Fetcher) FetchDocument(ctx context.Context, relativePath string) ([]byte, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil || fileContent.Content == nil {
		return nil, fmt.Errorf("no content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fullPath, err)
	}
	return content, nil
}

// Source identifies where synced documents came from, recorded in chunk
// metadata.
func (f *Fetcher) Source() string {
	return fmt.Sprintf("github.com/%s/%s/%s", f.owner, f.repo, f.basePath)
}
