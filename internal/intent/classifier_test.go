package intent

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

func testCatalog() *Catalog {
	defaultOnce.Do(func() { defaultCat = DefaultCatalog(DefaultFloor) })
	return defaultCat
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Are there any anomalies?":  "are there any anomaly",
		"How many sales?":           "count revenue",
		"Show me the BEST products": "show me the top product",
		"  what's   the SUM  ":      "what the total",
		"revenue vs. cost":          "revenue compare cost",
		"":                          "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyKnownQuestions(t *testing.T) {
	c := NewClassifier(testCatalog(), DefaultFloor)
	cases := []struct {
		q    string
		want Category
	}{
		{"What is the total revenue?", Aggregation},
		{"show me top 3 products", Ranking},
		{"Are there any anomalies?", Anomaly},
		{"show me the trend", Trend},
		{"forecast sales for next month", Predictive},
		{"why did profit drop", Diagnostic},
		{"correlation between revenue and cost", Correlation},
		{"distribution of price", Distribution},
		{"give me recommendations", Prescriptive},
		{"break down revenue by region", Segmentation},
	}
	for _, tc := range cases {
		got := c.Classify(tc.q, nil)
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %s (score %.1f, phrase %q), want %s", tc.q, got.Category, got.Score, got.Phrase, tc.want)
		}
		if got.Confidence <= 0.7 || got.Confidence > 1 {
			t.Errorf("Classify(%q) confidence %.2f out of range", tc.q, got.Confidence)
		}
	}
}

func TestClassifyBlankAndGibberish(t *testing.T) {
	c := NewClassifier(testCatalog(), DefaultFloor)
	for _, q := range []string{"", "   ", "?!", "zxqv plorb"} {
		got := c.Classify(q, nil)
		if got.Category != Unknown || got.Confidence != 0 {
			t.Errorf("Classify(%q) = %+v, want unknown with zero confidence", q, got)
		}
	}
}

func TestTieBreakPrefersRecentCategory(t *testing.T) {
	cat := NewCatalog(DefaultFloor)
	cat.Add(Ranking, "alpha bbbb")
	cat.Add(Trend, "alpha cccc")

	m, ok := cat.BestMatch("alpha dddd", nil)
	if !ok || m.Template.Category != Ranking {
		t.Fatalf("expected declaration order to win without history, got %+v", m)
	}
	m, _ = cat.BestMatch("alpha dddd", []Category{Trend})
	if m.Template.Category != Trend {
		t.Fatalf("expected recent trend to win, got %s", m.Template.Category)
	}
	m, _ = cat.BestMatch("alpha dddd", []Category{Trend, Ranking})
	if m.Template.Category != Ranking {
		t.Fatalf("expected most recent ranking to win, got %s", m.Template.Category)
	}
}

func TestCatalogDedupesNormalizedPhrases(t *testing.T) {
	cat := NewCatalog(DefaultFloor)
	if n := cat.Add(Aggregation, "total sales", "Sum of sales", "sum sales", "SUM sales!"); n != 2 {
		t.Fatalf("expected 2 distinct templates, got %d", n)
	}
	if got := testCatalog().Len(); got < 5000 {
		t.Fatalf("default catalog unexpectedly small: %d", got)
	}
}

func TestLoadFileExtendsCatalog(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "extra.yaml")
	body := "templates:\n  - category: ranking\n    phrases: [\"leaderboard please\", \"who leads the pack\"]\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cat := NewCatalog(DefaultFloor)
	n, err := cat.LoadFile(p)
	if err != nil || n != 2 {
		t.Fatalf("LoadFile: n=%d err=%v", n, err)
	}
	got := NewClassifier(cat, DefaultFloor).Classify("who leads the pack?", nil)
	if got.Category != Ranking {
		t.Fatalf("expected ranking, got %+v", got)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("templates:\n  - category: astrology\n    phrases: [x]\n"), 0o644)
	if _, err := cat.LoadFile(bad); err == nil || !strings.Contains(err.Error(), "astrology") {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

// bruteForce scores every template without pruning.
func bruteForce(c *Catalog, utterance string) float64 {
	u := newNormalized(utterance)
	best := 0.0
	for _, tpl := range c.templates {
		s := score(u, tpl.norm, overlap(u, tpl.norm) > 0)
		if s > best {
			best = s
		}
	}
	return best
}

func TestProperties(t *testing.T) {
	cat := testCatalog()
	cls := NewClassifier(cat, DefaultFloor)
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("catalog phrases classify to their own category", prop.ForAll(
		func(i int) bool {
			tpl := cat.templates[i]
			got := cls.Classify(tpl.Phrase, nil)
			return got.Category == tpl.Category && got.Score >= 95
		},
		gen.IntRange(0, cat.Len()-1),
	))

	properties.Property("whitespace-only input is unknown", prop.ForAll(
		func(n int) bool {
			got := cls.Classify(strings.Repeat(" \t", n), nil)
			return got.Category == Unknown && got.Confidence == 0
		},
		gen.IntRange(0, 10),
	))

	words := []string{"show", "me", "the", "top", "revenue", "sales", "by", "region",
		"trend", "why", "did", "drop", "anomalies", "forecast", "next", "month", "customer", "xyz"}
	pruning := gopter.DefaultTestParameters()
	pruning.MinSuccessfulTests = 25
	lossless := gopter.NewProperties(pruning)
	lossless.Property("pruned search finds the same best score", prop.ForAll(
		func(idx []int) bool {
			ws := make([]string, len(idx))
			for i, k := range idx {
				ws[i] = words[k]
			}
			q := strings.Join(ws, " ")
			want := bruteForce(cat, q)
			m, _ := cat.BestMatch(q, nil)
			if want <= DefaultFloor {
				return m.Score <= DefaultFloor
			}
			return m.Score > want-1e-9 && m.Score < want+1e-9
		},
		gen.SliceOfN(4, gen.IntRange(0, len(words)-1)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
	lossless.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestClassifyLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("latency check skipped in short mode")
	}
	c := NewClassifier(testCatalog(), DefaultFloor)
	qs := []string{
		"what is the total revenue for the north region this quarter",
		"show me top 5 customers by profit",
		"are there any unusual spikes in orders",
		"how has margin changed over the last year",
	}
	start := time.Now()
	for i := 0; i < 50; i++ {
		c.Classify(qs[i%len(qs)], nil)
	}
	if avg := time.Since(start) / 50; avg > 100*time.Millisecond {
		t.Fatalf("classification too slow: %v per utterance", avg)
	}
}

var (
	largeOnce sync.Once
	largeCat  *Catalog
)

// largeCatalog grows the default catalog past 10^5 templates by appending
// qualifiers to every phrase.
func largeCatalog() *Catalog {
	largeOnce.Do(func() {
		largeCat = DefaultCatalog(DefaultFloor)
		base := largeCat.Templates()
		tails := []string{
			" for the north region", " in the last quarter", " for each store",
			" across all channels", " for online orders", " by sales rep",
			" in europe", " for new accounts",
		}
		for _, tail := range tails {
			for _, tpl := range base {
				largeCat.Add(tpl.Category, tpl.Phrase+tail)
			}
		}
	})
	return largeCat
}

func TestClassifyLatencyLargeCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("latency check skipped in short mode")
	}
	cat := largeCatalog()
	if cat.Len() < 100_000 {
		t.Fatalf("large catalog has only %d templates", cat.Len())
	}
	c := NewClassifier(cat, DefaultFloor)
	qs := []string{
		"what is the total revenue for the north region this quarter",
		"show me top 5 customers by profit",
		"are there any unusual spikes in orders",
		"how has margin changed over the last year",
		"show me the",
	}
	for _, q := range qs {
		c.Classify(q, nil)
	}
	start := time.Now()
	for i := 0; i < 50; i++ {
		c.Classify(qs[i%len(qs)], nil)
	}
	if avg := time.Since(start) / 50; avg > 100*time.Millisecond {
		t.Fatalf("classification too slow on %d templates: %v per utterance", cat.Len(), avg)
	}
	if got := c.Classify("show me top 5 customers by profit", nil); got.Category != Ranking {
		t.Fatalf("expected ranking, got %+v", got)
	}

	for _, q := range qs {
		want := bruteForce(cat, q)
		m, _ := cat.BestMatch(q, nil)
		if want > DefaultFloor && (m.Score < want-1e-9 || m.Score > want+1e-9) {
			t.Fatalf("%q: pruned score %.3f, full scan %.3f", q, m.Score, want)
		}
	}
}

func TestStopwordsStayOutOfTokenIndex(t *testing.T) {
	cat := NewCatalog(DefaultFloor)
	cat.Add(Ranking, "show me the top customers")
	cat.Add(Prescriptive, "what should we do")
	if _, ok := cat.byToken["the"]; ok {
		t.Fatal("stopword indexed as content")
	}
	if len(cat.byToken["customer"]) != 1 || len(cat.byStop["show"]) != 1 {
		t.Fatalf("unexpected postings: %v / %v", cat.byToken, cat.byStop)
	}

	m, ok := cat.BestMatch("show me the", nil)
	if !ok || m.Template.Category != Ranking {
		t.Fatalf("stopword-only question should still reach templates: %+v", m)
	}
	m, ok = cat.BestMatch("what should we do next", nil)
	if !ok || m.Template.Category != Prescriptive || m.Score < DefaultFloor {
		t.Fatalf("expected prescriptive match, got %+v", m)
	}
}

func TestBagDistanceBoundsEditDistance(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)
	properties.Property("histogram distance never exceeds edit distance", prop.ForAll(
		func(a, b string) bool {
			ra, rb := []rune(a), []rune(b)
			ha, hb := histOf(ra), histOf(rb)
			return bagDistance(&ha, &hb) <= levenshtein(ra, rb, len(ra)+len(rb))
		},
		gen.RegexMatch(`[a-z0-9 ]{0,20}`),
		gen.RegexMatch(`[a-z0-9 ]{0,20}`),
	))
	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
