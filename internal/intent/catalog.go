package intent

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultFloor is the minimum score a template needs to count as a match.
const DefaultFloor = 70.0

// Template is one phrasing associated with a category.
type Template struct {
	ID       int      `json:"id"`
	Phrase   string   `json:"phrase"`
	Category Category `json:"category"`
	norm     normalized
}

// Normalized returns the template text after normalization.
func (t Template) Normalized() string { return t.norm.text }

// Match is the best template for an utterance together with its score.
type Match struct {
	Template Template
	Score    float64
}

// PatternCatalog finds the closest template for an utterance. recent lists
// the categories of previous turns, oldest first, and breaks score ties.
type PatternCatalog interface {
	BestMatch(utterance string, recent []Category) (Match, bool)
}

// Catalog is an indexed template set. Build it with Add or LoadFile before
// sharing; after that it is read-only and safe for concurrent BestMatch.
type Catalog struct {
	floor     float64
	templates []Template
	seen      map[string]int
	byToken   map[string][]int
	byStop    map[string][]int
	byLength  map[int][]int
	byCat     map[Category][]int
	// stopOnly holds templates made entirely of stopwords.
	stopOnly []int
}

// NewCatalog returns an empty catalog. floor bounds the pruning window and
// must not exceed the threshold the classifier applies.
func NewCatalog(floor float64) *Catalog {
	if floor <= 0 || floor >= 100 {
		floor = DefaultFloor
	}
	return &Catalog{
		floor:    floor,
		seen:     map[string]int{},
		byToken:  map[string][]int{},
		byStop:   map[string][]int{},
		byLength: map[int][]int{},
		byCat:    map[Category][]int{},
	}
}

// Add inserts phrases under cat, skipping phrases whose normalized form is
// already present. It returns how many were added.
func (c *Catalog) Add(cat Category, phrases ...string) int {
	added := 0
	for _, p := range phrases {
		n := newNormalized(p)
		if n.text == "" {
			continue
		}
		if _, dup := c.seen[n.text]; dup {
			continue
		}
		id := len(c.templates)
		c.seen[n.text] = id
		c.templates = append(c.templates, Template{ID: id, Phrase: p, Category: cat, norm: n})
		for _, tok := range distinct(n.tokens) {
			if stopwords[tok] {
				c.byStop[tok] = append(c.byStop[tok], id)
			} else {
				c.byToken[tok] = append(c.byToken[tok], id)
			}
		}
		if n.content == 0 {
			c.stopOnly = append(c.stopOnly, id)
		}
		c.byLength[len(n.runes)] = append(c.byLength[len(n.runes)], id)
		c.byCat[cat] = append(c.byCat[cat], id)
		added++
	}
	return added
}

// Len is the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// Templates returns a copy of all templates in insertion order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// CountByCategory reports how many templates each category holds.
func (c *Catalog) CountByCategory() map[Category]int {
	out := make(map[Category]int, len(c.byCat))
	for k, v := range c.byCat {
		out[k] = len(v)
	}
	return out
}

// BestMatch scores the utterance against every template that could reach
// the floor and returns the highest. Candidates come from three places: the
// content-token index, visited most shared tokens first; the few templates
// made only of stopwords; and the length window, where a character
// histogram bounds the edit ratio before any distance is computed.
// Containment and overlap need a shared token, and a question with content
// words can only be contained in, or contain, a template through one of
// them. A question made only of stopwords is looked up in the stopword
// index instead. Equal scores prefer the category seen most recently in
// recent, then the earlier template.
func (c *Catalog) BestMatch(utterance string, recent []Category) (Match, bool) {
	u := newNormalized(utterance)
	if u.text == "" || len(c.templates) == 0 {
		return Match{}, false
	}

	if id, ok := c.seen[u.text]; ok {
		return Match{Template: c.templates[id], Score: 100}, true
	}

	recency := map[Category]int{}
	for i, cat := range recent {
		recency[cat] = i + 1
	}

	best, bestID := -1.0, -1
	consider := func(id int, s float64) {
		if bestID < 0 || s > best+1e-9 {
			best, bestID = s, id
			return
		}
		if s < best-1e-9 {
			return
		}
		rc, rb := recency[c.templates[id].Category], recency[c.templates[bestID].Category]
		if rc > rb || (rc == rb && id < bestID) {
			best, bestID = s, id
		}
	}

	postings := c.byToken
	if u.content == 0 {
		postings = c.byStop
	}
	hits := make([]uint8, len(c.templates))
	var ids []int
	for _, tok := range distinct(u.tokens) {
		for _, id := range postings[tok] {
			if hits[id] == 0 {
				ids = append(ids, id)
			}
			if hits[id] < math.MaxUint8 {
				hits[id]++
			}
		}
	}
	sort.Slice(ids, func(a, b int) bool {
		ha, hb := hits[ids[a]], hits[ids[b]]
		if ha != hb {
			return ha > hb
		}
		return ids[a] < ids[b]
	})
	for _, id := range ids {
		consider(id, scoreAtLeast(u, c.templates[id].norm, true, best-1e-6))
	}

	for _, id := range c.stopOnly {
		if hits[id] > 0 {
			continue
		}
		t := c.templates[id].norm
		consider(id, scoreAtLeast(u, t, sharesToken(u, t), best-1e-6))
	}

	L := float64(len(u.runes))
	keep := c.floor / 100
	lo, hi := int(L*keep), int(L/keep)+1
	for l := lo; l <= hi; l++ {
		for _, id := range c.byLength[l] {
			t := &c.templates[id].norm
			if hits[id] > 0 || t.content == 0 {
				continue
			}
			target := math.Max(best, c.floor) - 1e-6
			ub := ratioBound(&u, t)
			if blend := 0.6*ub + 40*overlapBound(u, *t); blend > ub {
				ub = blend
			}
			if ub < target {
				continue
			}
			if s := scoreAtLeast(u, *t, sharesToken(u, *t), target); s >= target {
				consider(id, s)
			}
		}
	}

	if bestID < 0 {
		return Match{}, false
	}
	return Match{Template: c.templates[bestID], Score: best}, true
}

// Stats summarizes catalog size per category in declaration order.
type Stats struct {
	Total      int
	Categories []CategoryCount
}

type CategoryCount struct {
	Category Category
	Count    int
}

func (c *Catalog) Stats() Stats {
	counts := c.CountByCategory()
	st := Stats{Total: c.Len()}
	for _, cat := range Categories {
		st.Categories = append(st.Categories, CategoryCount{Category: cat, Count: counts[cat]})
	}
	return st
}

// TemplateFile is the on-disk format for catalog extensions:
//
//	templates:
//	  - category: ranking
//	    phrases: ["leaderboard", "who leads"]
type TemplateFile struct {
	Templates []struct {
		Category string   `yaml:"category"`
		Phrases  []string `yaml:"phrases"`
	} `yaml:"templates"`
}

// LoadFile extends the catalog with templates from a YAML file.
func (c *Catalog) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read templates: %w", err)
	}
	var tf TemplateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return 0, fmt.Errorf("parse templates %s: %w", path, err)
	}
	added := 0
	for _, g := range tf.Templates {
		cat, ok := ParseCategory(g.Category)
		if !ok {
			return added, fmt.Errorf("templates %s: unknown category %q", path, g.Category)
		}
		added += c.Add(cat, g.Phrases...)
	}
	return added, nil
}

func distinct(toks []string) []string {
	seen := make(map[string]struct{}, len(toks))
	out := toks[:0:0]
	for _, t := range toks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
