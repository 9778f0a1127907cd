package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// KeyProvider returns the decryption keys of the current build.
type KeyProvider interface {
	Name() string
	Keys(ctx context.Context) (*Keys, error)
}

// KeyCache persists keys returned by a provider.
type KeyCache interface {
	Store(ctx context.Context, keys *Keys) error
}

// MappingsProvider returns the type mappings of the current build.
type MappingsProvider interface {
	Mappings(ctx context.Context) (*Mappings, error)
}

// HTTPKeyProvider fetches keys from a JSON API that wraps them in "data".
type HTTPKeyProvider struct {
	url    string
	client *http.Client
}

// NewHTTPKeyProvider creates a provider for url with a request timeout.
func NewHTTPKeyProvider(url string, timeout time.Duration) *HTTPKeyProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPKeyProvider{url: url, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPKeyProvider) Name() string { return "http" }

func (p *HTTPKeyProvider) Keys(ctx context.Context) (*Keys, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build key request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to fetch keys: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data *Keys `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode keys: %w", err)
	}
	if !body.Data.Valid() {
		return nil, fmt.Errorf("key response has no main key")
	}
	return body.Data, nil
}

// FileKeyProvider reads keys from a YAML or JSON file.
type FileKeyProvider struct {
	path string
}

// NewFileKeyProvider creates a provider reading path.
func NewFileKeyProvider(path string) *FileKeyProvider {
	return &FileKeyProvider{path: path}
}

func (p *FileKeyProvider) Name() string { return "file" }

func (p *FileKeyProvider) Keys(ctx context.Context) (*Keys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys Keys
	if err := readYAML(p.path, &keys); err != nil {
		return nil, err
	}
	if !keys.Valid() {
		return nil, fmt.Errorf("key file %s has no main key", p.path)
	}
	return &keys, nil
}

// FileKeyCache writes keys to a YAML file.
type FileKeyCache struct {
	path string
}

// NewFileKeyCache creates a cache writing to path.
func NewFileKeyCache(path string) *FileKeyCache {
	return &FileKeyCache{path: path}
}

func (c *FileKeyCache) Store(ctx context.Context, keys *Keys) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode key cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create key cache directory: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// FileMappingsProvider reads mappings from a YAML or JSON file.
type FileMappingsProvider struct {
	path string
}

// NewFileMappingsProvider creates a provider reading path.
func NewFileMappingsProvider(path string) *FileMappingsProvider {
	return &FileMappingsProvider{path: path}
}

func (p *FileMappingsProvider) Mappings(ctx context.Context) (*Mappings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m Mappings
	if err := readYAML(p.path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
