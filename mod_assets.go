package gatelab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gekko3d/gatelab/host"
	"github.com/gekko3d/gatelab/scene"
)

// AssetSource loads a scene graph by URL. Each call is a single attempt.
type AssetSource interface {
	Load(ctx context.Context, url string) (*scene.Node, error)
}

// SourceFunc adapts a function to AssetSource.
type SourceFunc func(ctx context.Context, url string) (*scene.Node, error)

func (f SourceFunc) Load(ctx context.Context, url string) (*scene.Node, error) {
	return f(ctx, url)
}

// FileSource reads glTF/GLB files, resolving relative URLs against Root.
type FileSource struct {
	Root string
}

func (s FileSource) Load(ctx context.Context, url string) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.FromSlash(url)
	if s.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	return scene.Open(path)
}

// HTTPSource fetches self-contained GLB documents.
type HTTPSource struct {
	Client *http.Client
	// Base is the URL relative model URLs resolve against, as a page's
	// base URI does in a browser.
	Base string
}

func (s HTTPSource) Load(ctx context.Context, ref string) (*scene.Node, error) {
	target, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	return scene.Decode(resp.Body)
}

func (s HTTPSource) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || s.Base == "" {
		return u.String(), nil
	}
	base, err := url.Parse(s.Base)
	if err != nil {
		return "", fmt.Errorf("base %q: %w", s.Base, err)
	}
	return base.ResolveReference(u).String(), nil
}

func isHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// DefaultSource fetches http(s) URLs and reads everything else from disk.
func DefaultSource() AssetSource {
	return SourceFunc(func(ctx context.Context, url string) (*scene.Node, error) {
		if isHTTP(url) {
			return HTTPSource{}.Load(ctx, url)
		}
		return FileSource{}.Load(ctx, url)
	})
}

// loadAsset runs one load off the UI thread and delivers the outcome on it
// through win.Post. A load whose context is cancelled reports ctx.Err().
func loadAsset(ctx context.Context, win host.Window, src AssetSource, url string, done func(*scene.Node, error)) {
	go func() {
		root, err := src.Load(ctx, url)
		if err == nil && ctx.Err() != nil {
			root, err = nil, ctx.Err()
		}
		if err == nil && root == nil {
			err = fmt.Errorf("%s: empty scene", url)
		}
		win.Post(func() { done(root, err) })
	}()
}
