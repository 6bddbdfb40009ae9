package foods

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultSearchLimit = 5
	DefaultClassLimit  = 20

	scorePrefix    = 1.0
	scoreSubstring = 0.8
	minSimilarity  = 0.3
)

type entry struct {
	food       Food
	normalized string
}

// DB is read-only after construction and safe for concurrent use.
type DB struct {
	entries []entry
	byCode  map[string]int
}

func NewDB(list []Food) *DB {
	db := &DB{
		entries: make([]entry, 0, len(list)),
		byCode:  make(map[string]int, len(list)),
	}
	for _, f := range list {
		if _, dup := db.byCode[f.Code]; !dup && f.Code != "" {
			db.byCode[f.Code] = len(db.entries)
		}
		db.entries = append(db.entries, entry{food: f, normalized: Normalize(f.Name)})
	}
	return db
}

func (db *DB) Len() int { return len(db.entries) }

// Normalize decomposes s, drops combining marks and lower-cases it, so
// "Feijão" and "feijao" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Match is a search hit with its relevance score in [0.3, 1].
type Match struct {
	Food  Food    `json:"food"`
	Score float64 `json:"score"`
}

// Search ranks foods whose name starts with term (1.0), contains it (0.8)
// or is similar enough to it. Ties keep table order.
func (db *DB) Search(term string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := Normalize(strings.TrimSpace(term))
	if q == "" {
		return nil
	}
	qRunes := splitRunes(q)

	var hits []Match
	for _, e := range db.entries {
		var score float64
		switch {
		case strings.HasPrefix(e.normalized, q):
			score = scorePrefix
		case strings.Contains(e.normalized, q):
			score = scoreSubstring
		default:
			score = difflib.NewMatcher(qRunes, splitRunes(e.normalized)).Ratio()
			if score < minSimilarity {
				continue
			}
		}
		hits = append(hits, Match{Food: e.food, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Best returns the top search hit for term.
func (db *DB) Best(term string) (Food, bool) {
	hits := db.Search(term, 1)
	if len(hits) == 0 {
		return Food{}, false
	}
	return hits[0].Food, true
}

func (db *DB) ByCode(code string) (Food, bool) {
	i, ok := db.byCode[code]
	if !ok {
		return Food{}, false
	}
	return db.entries[i].food, true
}

// Classes lists the distinct non-empty food classes, sorted.
func (db *DB) Classes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range db.entries {
		if e.food.Class == "" || seen[e.food.Class] {
			continue
		}
		seen[e.food.Class] = true
		out = append(out, e.food.Class)
	}
	slices.Sort(out)
	return out
}

// ByClass returns foods whose class contains class, case-insensitively.
func (db *DB) ByClass(class string, limit int) []Food {
	if limit <= 0 {
		limit = DefaultClassLimit
	}
	q := strings.ToLower(class)

	var out []Food
	for _, e := range db.entries {
		if strings.Contains(strings.ToLower(e.food.Class), q) {
			out = append(out, e.food)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
