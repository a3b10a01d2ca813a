// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package locate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// 🚫 DefaultExcludePatterns are never searched.
var DefaultExcludePatterns = []string{
	"**/.git/**", "**/node_modules/**", "**/vendor/**",
	"**/*.min.js", "**/*.min.css", "**/*.map",
	"**/*.png", "**/*.jpg", "**/*.jpeg", "**/*.gif", "**/*.ico",
	"**/*.zip", "**/*.tar", "**/*.gz", "**/*.7z",
	"**/*.exe", "**/*.dll", "**/*.so", "**/*.dylib", "**/*.a", "**/*.o",
	"**/*.repatch-*",
}

// 🚶 Walk expands paths into the list of regular files to search. Directories
// are walked recursively in lexical order; symlinks found while walking are
// not followed. Files named more than once are returned once.
func (l *Locator) Walk(ctx context.Context, paths []string) ([]string, []error) {
	logger := zerolog.Ctx(ctx)

	var (
		files []string
		errs  []error
		seen  = map[string]bool{}
	)

	add := func(path string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, &Error{Path: root, Err: err})
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				add(root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, &Error{Path: path, Err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}

			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			if path != root && !l.opts.Hidden && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && l.excluded(rel+"/") {
					logger.Debug().Str("path", path).Msg("directory excluded")
					return fs.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			if l.excluded(rel) || !l.included(rel) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			errs = append(errs, &Error{Path: root, Err: err})
		}
	}

	return files, errs
}

func (l *Locator) excluded(rel string) bool {
	for _, set := range [][]string{DefaultExcludePatterns, l.opts.Exclude} {
		for _, pattern := range set {
			if globMatch(pattern, rel) {
				return true
			}
		}
	}
	return false
}

func (l *Locator) included(rel string) bool {
	if len(l.opts.Include) == 0 {
		return true
	}
	for _, pattern := range l.opts.Include {
		if globMatch(pattern, rel) {
			return true
		}
	}
	return false
}

// globMatch tries the pattern against the relative path and, for patterns
// without a separator, against the base name.
func globMatch(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
		return true
	}
	if strings.HasSuffix(rel, "/") {
		if ok, _ := doublestar.Match(pattern, rel+"x"); ok {
			return true
		}
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, filepath.Base(strings.TrimSuffix(rel, "/")))
		return ok
	}
	return false
}
