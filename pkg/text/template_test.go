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
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/repatch/pkg/locate"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		want      []Node
		wantError string
	}{
		{
			name:     "literal_only",
			template: "hello",
			want:     []Node{Literal{Text: "hello"}},
		},
		{
			name:     "numbered_refs",
			template: "$2-${1}",
			want:     []Node{GroupRef{Index: 2}, Literal{Text: "-"}, GroupRef{Index: 1}},
		},
		{
			name:     "named_refs",
			template: "<$word ${other}>",
			want: []Node{
				Literal{Text: "<"},
				GroupRef{Index: -1, Name: "word"},
				Literal{Text: " "},
				GroupRef{Index: -1, Name: "other"},
				Literal{Text: ">"},
			},
		},
		{
			name:     "longest_name_wins",
			template: "$1a",
			want:     []Node{GroupRef{Index: -1, Name: "1a"}},
		},
		{
			name:     "escaped_dollar",
			template: "$$1 costs $",
			want:     []Node{Literal{Text: "$1 costs $"}},
		},
		{
			name:     "dollar_before_punctuation",
			template: "a$-b",
			want:     []Node{Literal{Text: "a$-b"}},
		},
		{
			name:     "empty",
			template: "",
			want:     nil,
		},
		{
			name:      "unterminated_brace",
			template:  "${1",
			wantError: "unterminated",
		},
		{
			name:      "bad_braced_name",
			template:  "${a-b}",
			wantError: "not a group name or index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := ParseTemplate(tt.template)
			if tt.wantError != "" {
				require.Error(t, err)
				var terr *TemplateError
				require.ErrorAs(t, err, &terr)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tpl.Nodes())
			assert.Equal(t, tt.template, tpl.String())
		})
	}
}

func TestTemplate_Validate(t *testing.T) {
	re := regexp.MustCompile(`(\d+)-(?P<tail>\d+)`)

	tests := []struct {
		name      string
		template  string
		wantError string
	}{
		{name: "whole_match", template: "$0"},
		{name: "index_in_range", template: "$2$1"},
		{name: "name_known", template: "${tail}"},
		{name: "index_out_of_range", template: "$3", wantError: "pattern has 2 capture groups"},
		{name: "name_unknown", template: "$head", wantError: "no such named group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := ParseTemplate(tt.template)
			require.NoError(t, err)

			err = tpl.Validate(re)
			if tt.wantError != "" {
				var terr *TemplateError
				require.ErrorAs(t, err, &terr)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func locateLine(t *testing.T, pattern, line string) (*regexp.Regexp, []locate.Match) {
	t.Helper()
	l, err := locate.New(locate.Options{Pattern: pattern})
	require.NoError(t, err)
	ms, err := l.MatchReader(context.Background(), "x", strings.NewReader(line))
	require.NoError(t, err)
	return l.Regexp(), ms
}

func TestReplacer_ReplaceLine(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		template string
		line     string
		want     string
	}{
		{
			name:     "swap_captures",
			pattern:  `(\d+)-(\d+)`,
			template: "$2-$1",
			line:     "12-34\n",
			want:     "34-12\n",
		},
		{
			name:     "identity",
			pattern:  `o+`,
			template: "$0",
			line:     "foo boo\r\n",
			want:     "foo boo\r\n",
		},
		{
			name:     "multiple_matches_keep_surroundings",
			pattern:  `foo`,
			template: "bar",
			line:     "a foo b foo c",
			want:     "a bar b bar c",
		},
		{
			name:     "named_group",
			pattern:  `(?P<key>\w+)=(?P<val>\w+)`,
			template: "${val}=${key}",
			line:     "x a=b y\n",
			want:     "x b=a y\n",
		},
		{
			name:     "unmatched_optional_group",
			pattern:  `a(b)?c`,
			template: "[$1]",
			line:     "ac abc\n",
			want:     "[] [b]\n",
		},
		{
			name:     "literal_dollar",
			pattern:  `price`,
			template: "$$5",
			line:     "price\n",
			want:     "$5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, ms := locateLine(t, tt.pattern, tt.line)
			r, err := NewReplacer(re, tt.template)
			require.NoError(t, err)

			got, err := r.ReplaceLine([]byte(tt.line), ms)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReplacer_BoundsChecked(t *testing.T) {
	re := regexp.MustCompile(`(a)`)
	r, err := NewReplacer(re, "$1")
	require.NoError(t, err)

	// a match carrying fewer groups than the template needs
	m := locate.Match{Start: 0, End: 1, Groups: []locate.Group{{Index: 0, Start: 0, End: 1, Matched: true}}}
	_, err = r.ReplaceLine([]byte("a"), []locate.Match{m})
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)

	m = locate.Match{Start: 0, End: 5}
	_, err = r.ReplaceLine([]byte("a"), []locate.Match{m})
	require.Error(t, err)
}

func TestNewReplacer_InvalidTemplate(t *testing.T) {
	_, err := NewReplacer(regexp.MustCompile(`x`), "$1")
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "1", terr.Ref)
}
