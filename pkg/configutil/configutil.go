// Package configutil reads json5 config files that may be overridden by a
// local, usually untracked, sibling file.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Layers returns the files ReadConfig looks at for name, lowest priority
// first. For `gradewatch.json5` that is `gradewatch.json5` followed by
// `gradewatch.local.json5`.
func Layers(name string) []string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return []string{name, stem + ".local" + ext}
}

func readLayer[T any](path string) (T, bool, error) {
	var out T
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(strings.TrimSpace(string(buf))) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(buf, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig merges every layer of name that exists, later layers override
// the non-zero fields of earlier ones.
//
// if no layer exists, the returned error satisfies os.IsNotExist.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for _, path := range Layers(name) {
		layer, ok, err := readLayer[T](path)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		if !found {
			out = layer
			found = true
			continue
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", path, err)
		}
		slog.Debug("merged config layer", "path", path)
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively calls ReadConfig in the working directory and then in
// each of its parents until a config is found.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if !os.IsNotExist(err) {
			return config, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
