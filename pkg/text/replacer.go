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

package text

import (
	"regexp"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/locate"
)

// 🔁 Replacer rewrites the matched spans of a line.
type Replacer struct {
	tpl *Template
}

// 🏭 NewReplacer parses template and validates it against re.
func NewReplacer(re *regexp.Regexp, template string) (*Replacer, error) {
	tpl, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	if err := tpl.Validate(re); err != nil {
		return nil, err
	}
	return &Replacer{tpl: tpl}, nil
}

// ✏️ ReplaceLine returns a copy of line with each match span replaced by the
// expanded template. Bytes outside the spans, the terminator included, are
// kept. matches must all belong to line.
func (r *Replacer) ReplaceLine(line []byte, matches []locate.Match) ([]byte, error) {
	if len(matches) == 0 {
		return append([]byte(nil), line...), nil
	}

	ordered := make([]locate.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	out := make([]byte, 0, len(line))
	last := 0
	for _, m := range ordered {
		if m.Start < last || m.End > len(line) || m.Start > m.End {
			return nil, errors.Errorf("match span [%d,%d) out of order or outside line of %d bytes", m.Start, m.End, len(line))
		}
		out = append(out, line[last:m.Start]...)
		var err error
		out, err = r.tpl.Expand(out, line, m)
		if err != nil {
			return nil, err
		}
		last = m.End
	}
	return append(out, line[last:]...), nil
}
