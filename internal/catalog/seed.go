package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/r2client"
)

// Seed is the static seed cache: a read-only mapping from code to catalog
// entry, loaded once at startup. Keys are matched case-insensitively.
type Seed struct {
	entries map[string]Result
}

// ParseSeed parses the seed JSON: {"CODE": ["Title", "url-or-null"], ...}
func ParseSeed(data []byte) (*Seed, error) {
	var raw map[string][]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domerrors.ErrSeedUnavailable, err)
	}

	entries := make(map[string]Result, len(raw))
	for code, pair := range raw {
		if len(pair) == 0 || pair[0] == nil {
			return nil, fmt.Errorf("%w: entry %q has no title", domerrors.ErrSeedUnavailable, code)
		}
		key := strings.ToUpper(code)
		entry := Result{Code: key, Title: *pair[0]}
		if len(pair) > 1 && pair[1] != nil && *pair[1] != "" {
			url := *pair[1]
			entry.URL = &url
		}
		entries[key] = entry
	}

	return &Seed{entries: entries}, nil
}

// LoadSeedFile loads the seed cache from a local JSON file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", domerrors.ErrSeedUnavailable, path, err)
	}
	return ParseSeed(data)
}

// LoadSeedObject loads the seed cache from an R2 object. Keys ending in
// ".zst" are decompressed with zstd, matching the export pipeline's format.
func LoadSeedObject(ctx context.Context, client *r2client.Client, key string) (*Seed, error) {
	body, _, err := client.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: download %q: %w", domerrors.ErrSeedUnavailable, key, err)
	}
	defer func() { _ = body.Close() }()

	return readSeed(key, body)
}

func readSeed(key string, body io.Reader) (*Seed, error) {
	reader := body
	if strings.HasSuffix(key, ".zst") {
		decoder, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("%w: create decoder: %w", domerrors.ErrSeedUnavailable, err)
		}
		defer decoder.Close()
		reader = decoder
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", domerrors.ErrSeedUnavailable, key, err)
	}
	return ParseSeed(data)
}

// Lookup returns the entry for a code, matching case-insensitively.
func (s *Seed) Lookup(code string) (Result, bool) {
	entry, ok := s.entries[strings.ToUpper(code)]
	return entry, ok
}

// Len returns the number of seeded entries.
func (s *Seed) Len() int {
	return len(s.entries)
}
