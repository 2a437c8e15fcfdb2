package intent

import (
	"sort"
	"strconv"
	"strings"
)

var (
	metrics = []string{
		"revenue", "sales", "profit", "cost", "price", "value", "amount", "quantity",
		"orders", "transactions", "customers", "users", "units", "margin", "spend",
		"volume", "score", "rating", "visits", "clicks", "conversions", "hours",
		"budget", "discount", "tax", "salary", "traffic", "signups",
	}
	coreMetrics = []string{"revenue", "sales", "profit", "cost", "orders", "customers", "units", "margin"}
	entities    = []string{
		"products", "customers", "categories", "regions", "salespeople", "items",
		"stores", "locations", "brands", "suppliers", "channels", "segments",
		"countries", "cities", "departments", "employees", "teams", "vendors", "campaigns",
	}
	counts    = []int{1, 3, 5, 10, 20}
	periods   = []string{"week", "month", "quarter", "year"}
	timeFrame = []string{
		"over time", "monthly", "weekly", "daily", "yearly", "quarterly",
		"by month", "by week", "by day", "per month", "this year", "over the last year",
	}
)

// expand substitutes every combination of the named slots into pattern.
func expand(pattern string, slots map[string][]string) []string {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := []string{pattern}
	for _, key := range keys {
		vals := slots[key]
		ph := "{" + key + "}"
		if !strings.Contains(pattern, ph) {
			continue
		}
		next := make([]string, 0, len(out)*len(vals))
		for _, s := range out {
			for _, v := range vals {
				next = append(next, strings.ReplaceAll(s, ph, v))
			}
		}
		out = next
	}
	return out
}

func expandAll(patterns []string, slots map[string][]string) []string {
	var out []string
	for _, p := range patterns {
		out = append(out, expand(p, slots)...)
	}
	return out
}

func numbers() []string {
	out := make([]string, len(counts))
	for i, n := range counts {
		out[i] = strconv.Itoa(n)
	}
	return out
}

// pairs yields "a and b" style metric pairs without repeats.
func pairs(ms []string, join string) []string {
	var out []string
	for _, a := range ms {
		for _, b := range ms {
			if a != b {
				out = append(out, a+join+b)
			}
		}
	}
	return out
}

// DefaultCatalog builds the built-in template set. Categories are added in
// declaration order, so a phrasing shared by two categories stays with the
// first.
func DefaultCatalog(floor float64) *Catalog {
	c := NewCatalog(floor)
	m := map[string][]string{"m": metrics}
	cm := map[string][]string{"m": coreMetrics}
	suffix := []string{"", " overall", " in total", " so far", " for all records"}

	agg := expandAll([]string{
		"what is the total {m}", "what was the total {m}", "total {m}", "show me total {m}",
		"show me the total {m}", "calculate total {m}", "tell me the total {m}", "sum of {m}",
		"sum up {m}", "aggregate {m}", "{m} total", "grand total of {m}", "how much {m}",
		"how much {m} did we make", "how many {m}", "how many {m} are there", "count of {m}",
		"count {m}", "give me {m}", "what is our {m}", "what is the average {m}",
		"average {m}", "what is the typical {m}", "mean {m}", "avg {m}",
		"what is the maximum {m}", "maximum {m}", "max {m}", "what is the minimum {m}",
		"minimum {m}", "min {m}", "what is the {m}",
	}, m)
	for _, s := range suffix {
		for _, a := range agg {
			c.Add(Aggregation, a+s)
		}
	}
	c.Add(Aggregation, "total", "sum", "how much", "how many", "count", "what is the total",
		"grand total", "average", "what is the average", "how many rows", "how many records")

	rankSlots := map[string][]string{"e": entities, "n": numbers(), "m": coreMetrics}
	c.Add(Ranking, expandAll([]string{
		"top {n} {e}", "show me top {n} {e}", "show me the top {n} {e}", "what are the top {n} {e}",
		"list the top {n} {e}", "best {n} {e}", "bottom {n} {e}", "worst {n} {e}",
		"show me bottom {n} {e}", "top {n} {e} by {m}", "bottom {n} {e} by {m}",
		"show me the top {n} {e} by {m}",
	}, rankSlots)...)
	c.Add(Ranking, expandAll([]string{
		"top {e}", "best {e}", "worst {e}", "highest {e}", "lowest {e}", "rank {e}",
		"{e} ranking", "best performing {e}", "worst performing {e}", "top performing {e}",
		"which {e} are best", "which {e} are worst", "rank {e} by {m}", "list {e} by {m}",
		"sort {e} by {m}", "top {e} by {m}", "which {e} has the highest {m}",
		"which {e} has the lowest {m}", "which {e} sold the most", "which {e} performed best",
		"leading {e} by {m}",
	}, rankSlots)...)
	c.Add(Ranking, "top", "top performers", "best performers", "worst performers", "leaderboard",
		"ranking", "rank", "who is the best", "what sells the most")

	trendSlots := map[string][]string{"m": metrics, "t": timeFrame}
	c.Add(Trend, expandAll([]string{
		"{m} {t}", "show {m} {t}", "show me {m} {t}", "plot {m} {t}", "how has {m} changed {t}",
		"{m} trend {t}", "chart {m} {t}",
	}, trendSlots)...)
	c.Add(Trend, expandAll([]string{
		"trend in {m}", "{m} trend", "{m} trends", "show me the {m} trend", "what is the trend of {m}",
		"how is {m} changing", "visualize {m}", "{m} progression", "is {m} increasing",
		"is {m} decreasing", "is {m} going up", "is {m} going down", "how is {m} trending",
		"{m} growth", "growth of {m}", "{m} over time",
	}, m)...)
	c.Add(Trend, "trend", "trends", "show me the trend", "what is the trend", "show trends",
		"how are things trending", "trend over time", "over time", "time series", "growth",
		"month over month", "year over year", "is it increasing", "is it decreasing")

	cmpSlots := map[string][]string{"e": entities, "m": coreMetrics}
	c.Add(Comparison, expandAll([]string{
		"compare {e}", "{e} comparison", "difference between {e}", "{e} performance",
		"which {e} is better", "{e} breakdown", "how do {e} compare", "compare {e} performance",
		"contrast {e}", "compare {m} by {e}", "compare {m} across {e}", "{m} by {e}",
		"{m} per {e}", "{m} for each {e}", "show {m} by {e}", "{e} vs {e}",
	}, cmpSlots)...)
	c.Add(Comparison, "compare", "comparison", "versus", "vs", "difference between", "how do they compare")

	c.Add(Statistics, expandAll([]string{
		"{m} statistics", "statistics for {m}", "summary of {m}", "median {m}",
		"what is the median {m}", "standard deviation of {m}", "variance of {m}",
		"quartiles of {m}", "describe {m}", "{m} stats", "percentiles of {m}",
	}, m)...)
	c.Add(Statistics, "statistics", "stats", "summary", "overview", "key metrics", "kpi", "kpis",
		"metrics", "median", "standard deviation", "variance", "percentile", "summary statistics",
		"describe the data", "give me a summary", "what are the key statistics",
		"descriptive statistics", "summarize the data", "data overview")

	c.Add(Diagnostic, expandAll([]string{
		"why did {m} drop", "why did {m} decrease", "why did {m} increase", "why is {m} low",
		"why is {m} high", "why is {m} down", "why is {m} up", "what caused the {m} drop",
		"what caused the change in {m}", "what is driving {m}", "what drives {m}",
		"root cause of {m} decline", "explain the change in {m}", "reason for {m} decline",
		"reason for the {m} increase", "what happened to {m}", "investigate {m}", "analyze {m}",
	}, m)...)
	c.Add(Diagnostic, "why", "what caused", "reason for", "root cause", "why did", "explain",
		"what happened", "investigate", "analyze", "what went wrong", "what is driving this")

	predSlots := map[string][]string{"m": metrics, "p": periods, "n": {"7", "14", "30", "90"}}
	c.Add(Predictive, expandAll([]string{
		"forecast {m}", "predict {m}", "forecast {m} for next {p}", "predict {m} for next {p}",
		"what will {m} be next {p}", "project {m}", "{m} forecast", "{m} projection",
		"expected {m} next {p}", "estimate future {m}", "how much {m} will we have next {p}",
		"predict {m} for the next {n} days", "forecast {m} for the next {n} days",
		"future {m}", "{m} next {p}",
	}, predSlots)...)
	c.Add(Predictive, "forecast", "predict", "future", "next month", "next quarter", "next year",
		"projection", "expected", "anticipated", "likely", "what will happen", "predictions",
		"what happens next")

	c.Add(Prescriptive, expandAll([]string{
		"how can we improve {m}", "how to increase {m}", "how to reduce {m}", "how to grow {m}",
		"recommendations for {m}", "how do i grow {m}", "optimize {m}", "how can i improve {m}",
		"what should we do about {m}", "how to boost {m}", "strategy for {m}",
	}, m)...)
	c.Add(Prescriptive, "recommend", "recommendations", "suggestion", "what should", "what should we do",
		"what should i do", "how can i improve", "optimize", "best action", "advice", "strategy",
		"what actions should we take", "give me recommendations", "suggest improvements",
		"what should i focus on", "next steps", "action items")

	c.Add(Distribution, expandAll([]string{
		"distribution of {m}", "{m} distribution", "show the spread of {m}", "histogram of {m}",
		"how is {m} distributed", "range of {m}", "frequency of {m}", "spread of {m}",
		"{m} histogram", "{m} range",
	}, m)...)
	c.Add(Distribution, "distribution", "spread", "histogram", "frequency", "range",
		"how are values distributed", "show the distribution")

	c.Add(Correlation, expandAll([]string{
		"correlation between {p}", "relationship between {p}", "how are {p} related",
	}, map[string][]string{"p": pairs(coreMetrics, " and ")})...)
	c.Add(Correlation, expandAll([]string{
		"is {p} related", "does {p} affect", "impact of {p}", "how does {p} affect",
	}, map[string][]string{"p": pairs(coreMetrics, " ")})...)
	c.Add(Correlation, expandAll([]string{
		"what correlates with {m}", "correlation with {m}", "what affects {m}",
		"what influences {m}", "{m} correlation",
	}, cm)...)
	c.Add(Correlation, "correlation", "correlations", "relationship", "related", "impact",
		"effect", "influence", "which metrics are correlated", "are these related")

	segSlots := map[string][]string{"e": entities, "m": coreMetrics}
	c.Add(Segmentation, expandAll([]string{
		"segment {e}", "segment by {e}", "break down {m} by {e}", "split {m} by {e}",
		"group by {e}", "group {m} by {e}", "{e} segments", "cluster {e}",
		"which {e} drives {m}", "which {e} stands out", "segment {m} by {e}",
	}, segSlots)...)
	c.Add(Segmentation, "segment", "segments", "segmentation", "group", "cluster", "category",
		"break down", "split by", "customer segments", "group by")

	c.Add(Anomaly, expandAll([]string{
		"detect anomalies in {m}", "any unusual {m}", "outliers in {m}", "anything unusual in {m}",
		"spikes in {m}", "are there any outliers in {m}", "strange values in {m}", "abnormal {m}",
		"unusual {m}", "{m} anomalies", "{m} outliers", "unexpected {m}",
	}, m)...)
	c.Add(Anomaly, "anomaly", "anomalies", "outlier", "outliers", "are there any anomalies",
		"find outliers", "show anomalies", "unusual", "strange", "unexpected", "irregular",
		"anything unusual", "spikes", "anything weird")
	return c
}
