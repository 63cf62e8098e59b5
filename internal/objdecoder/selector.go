// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package objdecoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUsage reports a malformed selector expression.
var ErrUsage = errors.New("objdecoder: invalid selector")

// PathSegment is one frame of the virtual path stack the streaming
// decoder maintains: either a list index (IsIndex true) or a dict key.
type PathSegment struct {
	IsIndex bool
	Index   int
	Key     string
}

func indexSeg(i int) PathSegment    { return PathSegment{IsIndex: true, Index: i} }
func keySeg(k string) PathSegment   { return PathSegment{Key: k} }
func (p PathSegment) String() string {
	if p.IsIndex {
		return strconv.Itoa(p.Index)
	}
	return p.Key
}

// Selector reports whether path (from the virtual root) should be
// materialized and yielded by Stream. Matching is length-exact: a
// selector built from k segments never matches at depth k-1 or k+1.
type Selector func(path []PathSegment) bool

// segKind discriminates one compiled pattern segment.
type segKind int

const (
	segLiteral segKind = iota
	segIndex
	segWildcard
)

type patSegment struct {
	kind segKind
	str  string
	idx  int
}

// ParseSelector compiles a comma-separated expression of dotted paths,
// where each segment is a literal string, a decimal integer (list
// index), or "*" (wildcard).
func ParseSelector(expr string) (Selector, error) {
	var patterns [][]patSegment
	for _, clause := range strings.Split(expr, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("%w: empty clause in %q", ErrUsage, expr)
		}
		var pat []patSegment
		for _, seg := range strings.Split(clause, ".") {
			if seg == "" {
				return nil, fmt.Errorf("%w: empty path segment in %q", ErrUsage, clause)
			}
			switch {
			case seg == "*":
				pat = append(pat, patSegment{kind: segWildcard})
			default:
				if n, err := strconv.Atoi(seg); err == nil {
					pat = append(pat, patSegment{kind: segIndex, idx: n})
				} else {
					pat = append(pat, patSegment{kind: segLiteral, str: seg})
				}
			}
		}
		patterns = append(patterns, pat)
	}

	return func(path []PathSegment) bool {
		for _, pat := range patterns {
			if matchPattern(pat, path) {
				return true
			}
		}
		return false
	}, nil
}

func matchPattern(pat []patSegment, path []PathSegment) bool {
	if len(pat) != len(path) {
		return false
	}
	for i, p := range pat {
		s := path[i]
		switch p.kind {
		case segWildcard:
			continue
		case segIndex:
			if !s.IsIndex || s.Index != p.idx {
				return false
			}
		case segLiteral:
			if s.IsIndex || s.Key != p.str {
				return false
			}
		}
	}
	return true
}
