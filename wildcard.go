package construct

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Wildcard is the bulk-assignment token usable inside argument keys.
// "...lr" assigns lr wherever it appears; "model...size" assigns size
// anywhere below model. It always stands for zero or more whole path
// segments, never a partial segment.
const Wildcard = "..."

// Similarity tuning for approximate matching. The exact values only affect
// suggestion ranking, not correctness.
const (
	similarityFloor = 0.6 // literal segments less similar than this score 0
	wildcardPenalty = 0.6 // discount for segments consumed by a wildcard
)

// HasWildcard reports whether key contains the wildcard token.
func HasWildcard(key string) bool {
	return strings.Contains(key, Wildcard)
}

// Matcher is a compiled wildcard pattern. Matching is whole-string: the
// pattern must cover the entire path, anchored at segment boundaries.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Compile translates a pattern into a Matcher. Literal portions are escaped;
// each "..." becomes zero or more whole segments. A pattern ending in "..."
// is rejected with ErrTrailingWildcard.
func Compile(pattern string) (*Matcher, error) {
	if strings.HasSuffix(pattern, Wildcard) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, ErrTrailingWildcard)
	}

	parts := strings.Split(pattern, Wildcard)
	var b strings.Builder
	b.WriteString("^")

	emitted := false // a literal part has been written
	pending := false // a wildcard gap awaits the next literal
	for i, part := range parts {
		if i > 0 {
			pending = true
			part = strings.TrimLeft(part, ".")
		}
		if i < len(parts)-1 {
			part = strings.TrimRight(part, ".")
		}
		if part == "" {
			continue // leading or doubled wildcard token
		}
		if pending {
			if !emitted {
				// Leading wildcard also permits zero preceding segments.
				b.WriteString(`(?:[^.]+\.)*`)
			} else {
				b.WriteString(`(?:\.[^.]+)*\.`)
			}
			pending = false
		}
		b.WriteString(regexp.QuoteMeta(part))
		emitted = true
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern the Matcher was compiled from.
func (m *Matcher) Pattern() string { return m.pattern }

// Matches reports whether path satisfies the whole pattern.
func (m *Matcher) Matches(path string) bool {
	return m.re.MatchString(path)
}

// Matches compiles pattern and tests it against path.
func Matches(pattern, path string) (bool, error) {
	m, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return m.Matches(path), nil
}

// patternToken is one unit of a tokenized pattern: either a literal segment
// or a wildcard marker.
type patternToken struct {
	wild bool
	lit  string
}

func tokenizePattern(pattern string) []patternToken {
	parts := strings.Split(pattern, Wildcard)
	var toks []patternToken
	for i, part := range parts {
		if i > 0 {
			part = strings.TrimLeft(part, ".")
			if len(toks) == 0 || !toks[len(toks)-1].wild {
				toks = append(toks, patternToken{wild: true})
			}
		}
		if i < len(parts)-1 {
			part = strings.TrimRight(part, ".")
		}
		if part == "" {
			continue
		}
		for _, seg := range strings.Split(part, ".") {
			toks = append(toks, patternToken{lit: seg})
		}
	}
	return toks
}

type approxResult struct {
	score float64
	sugg  string
}

// Approximate scores how closely path resembles pattern, in [0, 1], and
// reconstructs the best-matching concrete path as a suggestion. It exists for
// error UX only: extraneous keys are ranked against the known parameter paths
// with it. Identical strings score 1.0.
func Approximate(pattern, path string) (float64, string) {
	toks := tokenizePattern(pattern)
	segs := splitPath(path)
	memo := make(map[[2]int]approxResult)

	var visit func(ti, pi int) approxResult
	visit = func(ti, pi int) approxResult {
		key := [2]int{ti, pi}
		if r, ok := memo[key]; ok {
			return r
		}

		var r approxResult
		switch {
		case ti == len(toks) && pi == len(segs):
			r = approxResult{score: 1}
		case ti == len(toks):
			r = approxResult{} // path segments left over
		case toks[ti].wild:
			// Skip the wildcard entirely, or let it consume one segment and
			// stay on the same token; take whichever continuation wins.
			r = visit(ti+1, pi)
			if pi < len(segs) {
				took := visit(ti, pi+1)
				took.score *= wildcardPenalty
				took.sugg = joinPath(segs[pi], took.sugg)
				if took.score > r.score {
					r = took
				}
			}
		case pi == len(segs):
			r = approxResult{} // literal token with no segment to match
		default:
			ratio := levenshtein.Similarity(toks[ti].lit, segs[pi], nil)
			if ratio >= similarityFloor {
				rest := visit(ti+1, pi+1)
				r = approxResult{
					score: ratio * rest.score,
					sugg:  joinPath(segs[pi], rest.sugg),
				}
			}
		}

		memo[key] = r
		return r
	}

	r := visit(0, 0)
	if r.score == 0 {
		return 0, ""
	}
	return r.score, r.sugg
}

// rankSuggestions returns up to max candidate paths resembling key, best
// first. Candidates scoring zero are dropped.
func rankSuggestions(key string, candidates []string, max int) []string {
	type scored struct {
		sugg  string
		score float64
	}
	var hits []scored
	for _, cand := range candidates {
		if score, sugg := Approximate(key, cand); score > 0 {
			hits = append(hits, scored{sugg: sugg, score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].sugg < hits[j].sugg
	})
	out := make([]string, 0, max)
	for _, h := range hits {
		if len(out) == max {
			break
		}
		out = append(out, h.sugg)
	}
	return out
}
