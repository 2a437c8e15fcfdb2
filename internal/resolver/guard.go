package resolver

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "thanks": true, "thank you": true,
	"bye": true, "goodbye": true, "good morning": true, "good evening": true,
}

var offTopic = []string{
	"weather", "news", "sport", "politic", "recipe", "movie", "music", "game",
	"celebrity", "joke", "story", "poem", "song", "how are you",
}

var vaguePhrases = []string{
	"tell me something", "anything", "what can you do", "help", "what is this",
	"explain", "describe this", "tell me about",
}

// dataWords are normalized tokens that mark a question as being about data.
var dataWords = map[string]bool{
	"total": true, "average": true, "count": true, "show": true, "top": true,
	"bottom": true, "trend": true, "forecast": true, "compare": true, "analysis": true,
	"revenue": true, "customer": true, "product": true, "rank": true, "breakdown": true,
	"correlation": true, "anomaly": true, "distribution": true, "statistic": true,
	"recommend": true, "maximum": true, "minimum": true, "growth": true,
	"increase": true, "decrease": true, "cost": true, "profit": true, "segment": true,
	"max": true, "min": true, "percentage": true, "median": true,
}

// vagueThreshold is the word count under which a question must carry a data
// word or a column name.
const vagueThreshold = 5

// guard screens out greetings, off-topic requests and questions too vague to
// analyze. It returns the guidance to show and true when the question
// should not reach the classifier.
func guard(utterance string, s profile.Schema) (string, bool) {
	raw := strings.Join(strings.Fields(strings.ToLower(utterance)), " ")
	raw = strings.Trim(raw, "?!.")
	padded := " " + raw + " "
	if raw == "" {
		return "Ask me a question about your data, for example:", true
	}
	if greetings[raw] {
		return "Hello! I analyze the dataset you loaded. Ask me something specific about it, for example:", true
	}
	toks := intent.Tokens(utterance)
	// A column name wins over any off-topic word it happens to contain.
	if mentionsColumn(toks, s) {
		return "", false
	}
	for _, w := range offTopic {
		if strings.Contains(padded, " "+w) {
			return fmt.Sprintf("I can only answer questions about your data, not %s-related ones. Here are some questions I can answer:", w), true
		}
	}
	if aboutData(toks, s) {
		return "", false
	}
	for _, p := range vaguePhrases {
		if strings.Contains(padded, " "+p+" ") && len(raw) < 30 {
			return "Your question is a bit general. Ask something specific about your data, for example:", true
		}
	}
	if len(toks) < vagueThreshold {
		return fmt.Sprintf("I'm not sure how to analyze %q with this dataset. Could you be more specific? For example:", strings.TrimSpace(utterance)), true
	}
	return "", false
}

func aboutData(toks []string, s profile.Schema) bool {
	for _, t := range toks {
		if dataWords[t] {
			return true
		}
	}
	return mentionsColumn(toks, s)
}

func mentionsColumn(toks []string, s profile.Schema) bool {
	text := " " + strings.Join(toks, " ") + " "
	flat := strings.Join(toks, "")
	for _, c := range s.Columns {
		ct := intent.Tokens(c.Name)
		if len(ct) == 0 {
			continue
		}
		if strings.Contains(text, " "+strings.Join(ct, " ")+" ") || strings.Contains(flat, strings.Join(ct, "")) {
			return true
		}
	}
	return false
}

func pretty(name string) string { return strings.ReplaceAll(strings.ReplaceAll(name, "_", " "), "-", " ") }

func nameHas(name string, words ...string) bool {
	n := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

// Suggestions proposes up to six questions this schema can answer.
func Suggestions(s profile.Schema) []string {
	var out []string
	num := s.Numeric()
	cats := append(s.Categorical(), s.Identifiers()...)
	if len(s.Columns) == 0 {
		return []string{"What is the total revenue?", "Show me the top 5 products", "How has revenue trended over time?"}
	}
	for _, c := range num {
		if nameHas(c.Name, "revenue", "sales", "amount", "total", "price", "income") {
			out = append(out, fmt.Sprintf("What is the total %s?", pretty(c.Name)))
			break
		}
	}
	if len(num) > 0 {
		for _, c := range cats {
			if nameHas(c.Name, "product", "item", "category", "type", "name") {
				out = append(out, fmt.Sprintf("Show me the top 5 %s", pretty(c.Name)))
				break
			}
		}
		for _, c := range s.Categorical() {
			if nameHas(c.Name, "region", "location", "segment", "group", "category", "country", "store") {
				out = append(out, fmt.Sprintf("Compare %s performance", pretty(c.Name)))
				break
			}
		}
		if len(s.Temporal()) > 0 {
			out = append(out, fmt.Sprintf("Show me trends in %s over time", pretty(num[0].Name)))
		}
		out = append(out, fmt.Sprintf("What is the average %s?", pretty(num[0].Name)))
	}
	for _, c := range cats {
		if nameHas(c.Name, "customer", "client", "user") {
			out = append(out, fmt.Sprintf("How many %s are there?", pretty(c.Name)))
			break
		}
	}
	if len(num) >= 2 {
		out = append(out, "Which columns are correlated?")
	}
	if len(out) < 3 {
		out = append(out, "Give me the key statistics", "Are there any anomalies?", "What should we do next?")
	}
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}
