package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CachedGenerator wraps a TextGenerator to cache responses in a file,
// keyed by a hash of the full request. Meant for development and demos where
// the same inventory is planned over and over.
type CachedGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	log           *zap.Logger
	mu            sync.Mutex
}

// NewCachedGenerator creates a new CachedGenerator.
// It attempts to load the cache from the specified file path.
func NewCachedGenerator(realGen TextGenerator, cacheFilePath string, log *zap.Logger) (*CachedGenerator, error) {
	c := &CachedGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
		log:           log,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("response cache not found, starting empty", zap.String("path", cacheFilePath))
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Info("loaded response cache", zap.Int("entries", len(c.cache)), zap.String("path", cacheFilePath))
	return c, nil
}

func cacheKey(req GenerateRequest) string {
	h := sha256.New()
	h.Write([]byte(req.SystemInstruction))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	h.Write([]byte{0})
	if req.ResponseSchema != nil {
		schema, _ := json.Marshal(SchemaToJSON(req.ResponseSchema))
		h.Write(schema)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateContent checks the cache first. On a miss it calls the real
// generator and remembers only answers that are a complete JSON object, so a
// truncated reply is asked for again next time.
func (c *CachedGenerator) GenerateContent(ctx context.Context, req GenerateRequest) (ContentResponse, error) {
	key := cacheKey(req)

	c.mu.Lock()
	content, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		c.log.Debug("response cache hit", zap.String("key", key[:12]))
		return ContentResponse{Content: content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, req)
	if err != nil {
		return resp, err
	}
	if !cacheable(resp.Content) {
		c.log.Warn("not caching malformed response", zap.String("key", key[:12]), zap.Int("bytes", len(resp.Content)))
		return resp, nil
	}

	c.mu.Lock()
	c.cache[key] = resp.Content
	c.mu.Unlock()
	return resp, nil
}

func cacheable(content string) bool {
	b := bytes.TrimSpace([]byte(content))
	return len(b) > 0 && b[0] == '{' && json.Valid(b)
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}

	c.log.Info("saved response cache", zap.Int("entries", len(c.cache)), zap.String("path", c.cacheFilePath))
	return nil
}

// Close saves the cache and closes the wrapped generator if it holds resources.
func (c *CachedGenerator) Close() error {
	if err := c.SaveCache(); err != nil {
		return err
	}
	if closer, ok := c.realGen.(Closer); ok {
		return closer.Close()
	}
	return nil
}
