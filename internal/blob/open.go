// Package blob resolves output locations to blob stores and moves birbs in
// and out of them.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lukaszgryglicki/butterbrot/internal/blob/core"
	"github.com/lukaszgryglicki/butterbrot/internal/blob/fs"
	"github.com/lukaszgryglicki/butterbrot/internal/blob/s3"
	"github.com/lukaszgryglicki/butterbrot/internal/butterbrot"
)

const s3Scheme = "s3://"

// Open returns the store holding location and the key within it.
// "s3://bucket/key" selects the S3 driver configured from the environment,
// anything else is a filesystem path.
func Open(ctx context.Context, location string) (core.Store, string, error) {
	if strings.HasPrefix(location, s3Scheme) {
		bucket, key, err := parseS3(location)
		if err != nil {
			return nil, "", err
		}
		store, err := s3.New(ctx, s3.ConfigFromEnv(bucket))
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	}
	if strings.TrimSpace(location) == "" {
		return nil, "", fmt.Errorf("%w: empty location", core.ErrInvalidKey)
	}
	store, err := fs.New(filepath.Dir(location))
	if err != nil {
		return nil, "", err
	}
	return store, filepath.Base(location), nil
}

func parseS3(location string) (bucket, key string, err error) {
	bucket, key, _ = strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q, want s3://bucket/key", core.ErrInvalidKey, location)
	}
	return bucket, key, nil
}

// SaveBirb encodes b and stores it under key, failing if key exists.
func SaveBirb(ctx context.Context, store core.Store, key string, b butterbrot.Birb, meta map[string]string) (core.Info, error) {
	var buf bytes.Buffer
	if err := butterbrot.WriteBirb(&buf, b); err != nil {
		return core.Info{}, err
	}
	info, err := store.Put(ctx, key, bytes.NewReader(buf.Bytes()), core.PutOptions{
		ContentType: core.BirbContentType,
		Metadata:    meta,
	})
	if err != nil {
		return core.Info{}, fmt.Errorf("save %s: %w", key, err)
	}
	return info, nil
}

// LoadBirb reads and decodes the birb stored under key. A trailing partial
// word is dropped before the dimensions are checked.
func LoadBirb(ctx context.Context, store core.Store, key string) (butterbrot.Birb, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := butterbrot.ReadBirb(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return b, nil
}

// Save is SaveBirb on the store resolved from location.
func Save(ctx context.Context, location string, b butterbrot.Birb, meta map[string]string) (core.Info, error) {
	store, key, err := Open(ctx, location)
	if err != nil {
		return core.Info{}, err
	}
	return SaveBirb(ctx, store, key, b, meta)
}

// Load is LoadBirb on the store resolved from location.
func Load(ctx context.Context, location string) (butterbrot.Birb, error) {
	store, key, err := Open(ctx, location)
	if err != nil {
		return nil, err
	}
	return LoadBirb(ctx, store, key)
}

// Expand turns a listing location into the locations of the birbs below it.
// "s3://bucket/prefix/" and local directories are listed, any other
// location is returned as is.
func Expand(ctx context.Context, location string) ([]string, error) {
	var (
		store  core.Store
		prefix string
		join   func(key string) string
	)
	switch {
	case strings.HasPrefix(location, s3Scheme):
		if !strings.HasSuffix(location, "/") {
			return []string{location}, nil
		}
		var bucket string
		bucket, prefix, _ = strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
		if bucket == "" {
			return nil, fmt.Errorf("%w: %q, want s3://bucket/prefix/", core.ErrInvalidKey, location)
		}
		st, err := s3.New(ctx, s3.ConfigFromEnv(bucket))
		if err != nil {
			return nil, err
		}
		store = st
		join = func(key string) string { return s3Scheme + bucket + "/" + key }
	default:
		fi, err := os.Stat(location)
		if err != nil || !fi.IsDir() {
			return []string{location}, nil
		}
		st, err := fs.New(location)
		if err != nil {
			return nil, err
		}
		store = st
		join = func(key string) string { return filepath.Join(location, filepath.FromSlash(key)) }
	}
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", location, err)
	}
	var out []string
	for _, info := range infos {
		if strings.HasSuffix(info.Key, birbExt) {
			out = append(out, join(info.Key))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", core.ErrNotFound, birbExt, location)
	}
	return out, nil
}

const birbExt = ".birb"
