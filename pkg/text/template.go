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

// Package text expands replacement templates against located matches.
package text

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/walteh/repatch/pkg/locate"
)

// ❌ TemplateError reports a template that cannot be parsed or that refers to
// a capture group the pattern does not define.
type TemplateError struct {
	Template string
	Ref      string
	Reason   string
}

func (e *TemplateError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("invalid replacement %q: %s", e.Template, e.Reason)
	}
	return fmt.Sprintf("invalid replacement %q: $%s: %s", e.Template, e.Ref, e.Reason)
}

// Node is one piece of a parsed template.
type Node interface {
	node()
}

// Literal is copied to the output unchanged.
type Literal struct {
	Text string
}

// GroupRef is replaced by the text of a capture group. Named references have
// Index -1 until the template is bound to a pattern.
type GroupRef struct {
	Index int
	Name  string
}

func (Literal) node()  {}
func (GroupRef) node() {}

// 📝 Template is a parsed replacement string.
type Template struct {
	src   string
	nodes []Node
}

// 🏭 ParseTemplate parses s. References are written $1, ${1}, $name or
// ${name}; $$ is a literal dollar. A bare name is the longest run of letters,
// digits and underscores, so "$1a" refers to the group named "1a". A dollar
// that starts no reference is kept as is.
func ParseTemplate(s string) (*Template, error) {
	t := &Template{src: s}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.nodes = append(t.nodes, Literal{Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] != '$' {
			j := strings.IndexByte(s[i:], '$')
			if j < 0 {
				j = len(s) - i
			}
			lit.WriteString(s[i : i+j])
			i += j
			continue
		}

		if i+1 < len(s) && s[i+1] == '$' {
			lit.WriteByte('$')
			i += 2
			continue
		}

		var name string
		var next int
		if i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, &TemplateError{Template: s, Reason: "unterminated ${ reference"}
			}
			name = s[i+2 : i+2+end]
			if name == "" || !isName(name) {
				return nil, &TemplateError{Template: s, Ref: "{" + name + "}", Reason: "not a group name or index"}
			}
			next = i + 3 + end
		} else {
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			name = s[i+1 : j]
			next = j
		}

		if name == "" {
			lit.WriteByte('$')
			i++
			continue
		}

		flush()
		t.nodes = append(t.nodes, refFor(name))
		i = next
	}
	flush()

	return t, nil
}

func refFor(name string) GroupRef {
	if n, err := strconv.Atoi(name); err == nil && n >= 0 {
		return GroupRef{Index: n}
	}
	return GroupRef{Index: -1, Name: name}
}

func isNameByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isName(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}

// String returns the template source.
func (t *Template) String() string {
	return t.src
}

// Nodes returns the parsed pieces in order.
func (t *Template) Nodes() []Node {
	return t.nodes
}

// ✅ Validate checks every reference against the groups re defines and binds
// named references to their index.
func (t *Template) Validate(re *regexp.Regexp) error {
	names := re.SubexpNames()
	for i, n := range t.nodes {
		ref, ok := n.(GroupRef)
		if !ok {
			continue
		}
		if ref.Name == "" {
			if ref.Index >= len(names) {
				return &TemplateError{
					Template: t.src,
					Ref:      strconv.Itoa(ref.Index),
					Reason:   fmt.Sprintf("pattern has %d capture groups", len(names)-1),
				}
			}
			continue
		}
		idx := re.SubexpIndex(ref.Name)
		if idx < 0 {
			return &TemplateError{Template: t.src, Ref: ref.Name, Reason: "no such named group"}
		}
		ref.Index = idx
		t.nodes[i] = ref
	}
	return nil
}

// 🔄 Expand appends the expansion of t for match m to dst. line is the line m
// was found in. A group that exists but did not take part in the match
// expands to nothing.
func (t *Template) Expand(dst, line []byte, m locate.Match) ([]byte, error) {
	for _, n := range t.nodes {
		switch n := n.(type) {
		case Literal:
			dst = append(dst, n.Text...)
		case GroupRef:
			g, ok := lookup(m, n)
			if !ok {
				ref := n.Name
				if ref == "" {
					ref = strconv.Itoa(n.Index)
				}
				return dst, &TemplateError{Template: t.src, Ref: ref, Reason: "no such group in match"}
			}
			if !g.Matched {
				continue
			}
			if g.Start < 0 || g.End > len(line) || g.Start > g.End {
				return dst, &TemplateError{Template: t.src, Ref: strconv.Itoa(g.Index), Reason: "group span outside line"}
			}
			dst = append(dst, line[g.Start:g.End]...)
		}
	}
	return dst, nil
}

func lookup(m locate.Match, ref GroupRef) (locate.Group, bool) {
	if ref.Index >= 0 {
		return m.Group(ref.Index)
	}
	for _, g := range m.Groups {
		if g.Name == ref.Name {
			return g, true
		}
	}
	return locate.Group{}, false
}
