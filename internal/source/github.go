package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Default endpoints of the public GitHub service.
const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"
	webURL        = "https://github.com"
)

// GitHubOptions locates a rule pack inside a GitHub repository.
type GitHubOptions struct {
	Owner         string
	Repo          string
	Branch        string
	RuleblockPath string
	TemplatePath  string
	Token         string
	APIURL        string
	RawURL        string
	Timeout       time.Duration
}

// GitHub lists files through the contents API and fetches them from the raw
// content host.
type GitHub struct {
	opts   GitHubOptions
	client *http.Client
}

// NewGitHub creates a GitHub source. Empty endpoint options fall back to the
// public service.
func NewGitHub(opts GitHubOptions) *GitHub {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.RawURL == "" {
		opts.RawURL = DefaultRawURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.RawURL = strings.TrimRight(opts.RawURL, "/")
	return &GitHub{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

func (g *GitHub) ListRuleblocks(ctx context.Context) ([]catalog.FileInfo, error) {
	return g.listDir(ctx, g.opts.RuleblockPath, RuleblockSuffix)
}

func (g *GitHub) ListTemplates(ctx context.Context) ([]catalog.FileInfo, error) {
	return g.listDir(ctx, g.opts.TemplatePath, TemplateSuffix)
}

func (g *GitHub) listDir(ctx context.Context, dir, suffix string) ([]catalog.FileInfo, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		g.opts.APIURL, g.opts.Owner, g.opts.Repo, strings.Trim(dir, "/"), url.QueryEscape(g.opts.Branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if g.opts.Token != "" {
		req.Header.Set("Authorization", "token "+g.opts.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "GitHub API error"); err != nil {
		return nil, err
	}

	var items []catalog.FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode listing of %s: %w", dir, err)
	}

	files := make([]catalog.FileInfo, 0, len(items))
	for _, item := range items {
		if item.Type == "file" && strings.HasSuffix(item.Name, suffix) {
			files = append(files, item)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Fetch downloads the raw content of file by its repository path.
func (g *GitHub) Fetch(ctx context.Context, file catalog.FileInfo) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", g.opts.RawURL, g.opts.Owner, g.opts.Repo, g.opts.Branch, file.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", file.Path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "failed to fetch "+file.Path); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Path, err)
	}
	return string(body), nil
}

// BlobURL returns the web URL of a template file on the configured branch.
func (g *GitHub) BlobURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/blob/%s/%s/%s",
		webURL, g.opts.Owner, g.opts.Repo, g.opts.Branch, strings.Trim(g.opts.TemplatePath, "/"), name)
}

func checkStatus(resp *http.Response, what string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %s: %w", what, resp.Status, ErrNotFound)
	}
	return fmt.Errorf("%s: %s", what, resp.Status)
}
