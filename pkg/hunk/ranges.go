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

package hunk

import (
	"math"
	"sort"
)

// InfiniteContext puts every match of a file into a single hunk.
const InfiniteContext = -1

// Range is the half-open line interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Contains reports whether line falls inside r.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// 📐 Ranges pads every matched line with context lines on both sides and
// merges windows that overlap or abut. A negative context yields one range
// covering the whole file. End may run past the end of the file.
func Ranges(lines []int, context int) []Range {
	if len(lines) == 0 {
		return nil
	}
	if context < 0 {
		return []Range{{Start: 0, End: math.MaxInt}}
	}

	sorted := append([]int(nil), lines...)
	sort.Ints(sorted)

	var out []Range
	for _, line := range sorted {
		start := line - context
		if start < 0 {
			start = 0
		}
		end := math.MaxInt
		if line < math.MaxInt-context {
			end = line + context + 1
		}

		if n := len(out); n > 0 && start <= out[n-1].End {
			if end > out[n-1].End {
				out[n-1].End = end
			}
			continue
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}
