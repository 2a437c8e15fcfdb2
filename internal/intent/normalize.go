package intent

import (
	"strings"
	"unicode"
)

// phraseSynonyms rewrite multi-token phrases before token synonyms apply.
var phraseSynonyms = []struct {
	from []string
	to   string
}{
	{[]string{"how", "many"}, "count"},
	{[]string{"number", "of"}, "count"},
	{[]string{"break", "down"}, "breakdown"},
	{[]string{"broken", "down"}, "breakdown"},
	{[]string{"grand", "total"}, "total"},
	{[]string{"root", "cause"}, "rootcause"},
	{[]string{"going", "up"}, "increase"},
	{[]string{"going", "down"}, "decrease"},
}

// tokenSynonyms maps stemmed variants onto one canonical token.
var tokenSynonyms = map[string]string{}

func init() {
	groups := map[string][]string{
		"total":       {"sum", "aggregate", "overall", "combined", "cumulative"},
		"average":     {"mean", "avg", "typical"},
		"top":         {"best", "highest", "greatest", "leading", "largest", "biggest"},
		"bottom":      {"worst", "lowest", "smallest", "least"},
		"rank":        {"ranking", "sort", "arrange"},
		"trend":       {"pattern", "trajectory", "progression"},
		"increase":    {"rise", "rising", "increasing", "uptick", "surge", "climb"},
		"decrease":    {"fall", "decline", "drop", "dip", "slump", "decreasing", "falling"},
		"compare":     {"versus", "vs", "contrast", "comparison"},
		"revenue":     {"sale", "income", "earning", "turnover", "proceed"},
		"cost":        {"expense", "expenditure", "spending", "outlay"},
		"customer":    {"client", "buyer", "purchaser", "consumer", "patron"},
		"product":     {"item", "merchandise", "article"},
		"forecast":    {"predict", "prediction", "projection", "forecasting"},
		"anomaly":     {"outlier", "anomalous"},
		"correlation": {"correlate", "correlated"},
		"recommend":   {"recommendation", "suggest", "suggestion", "advice"},
		"statistic":   {"stat"},
	}
	for canon, vs := range groups {
		for _, v := range vs {
			tokenSynonyms[v] = canon
		}
	}
}

// Normalize lowercases, strips punctuation, stems light plurals and applies
// synonym substitution. Templates and utterances go through the same path.
func Normalize(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens is Normalize split into tokens.
func Tokens(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	fields = rewritePhrases(fields)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := stem(f)
		if canon, ok := tokenSynonyms[t]; ok {
			t = canon
		}
		out = append(out, t)
	}
	return out
}

func rewritePhrases(in []string) []string {
	out := make([]string, 0, len(in))
	for i := 0; i < len(in); {
		matched := false
		for _, p := range phraseSynonyms {
			if i+len(p.from) > len(in) {
				continue
			}
			ok := true
			for k, w := range p.from {
				if in[i+k] != w {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, p.to)
				i += len(p.from)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, in[i])
			i++
		}
	}
	return out
}

// stem strips plural endings: "anomalies" -> "anomaly", "products" -> "product".
func stem(w string) string {
	n := len(w)
	if n <= 3 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:n-1]
	}
	return w
}
