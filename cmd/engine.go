package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/ai"
	"github.com/KaramelBytes/queryloom/internal/analytics"
	cfgpkg "github.com/KaramelBytes/queryloom/internal/config"
	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/resolver"
	"github.com/KaramelBytes/queryloom/internal/session"
)

// Dataset loading flags shared by every command that takes a file.
var (
	loadDelimiter string
	loadDecimal   string
	loadThousands string
	loadSheet     string
	loadSheetIdx  int
	loadMaxRows   int
)

func addLoadFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&loadDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	f.StringVar(&loadDecimal, "decimal", "", "decimal separator: '.' | 'comma' (default auto)")
	f.StringVar(&loadThousands, "thousands", "", "thousands separator: ',' | '.' | 'space' (default auto)")
	f.StringVar(&loadSheet, "sheet-name", "", "XLSX sheet name")
	f.IntVar(&loadSheetIdx, "sheet-index", 1, "XLSX 1-based sheet index (ignored when --sheet-name is set)")
	f.IntVar(&loadMaxRows, "max-rows", 0, "limit rows loaded (0 = default cap)")
}

func loadOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if loadMaxRows > 0 {
		opt.MaxRows = loadMaxRows
	}
	switch loadDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", loadDelimiter)
	}
	switch strings.ToLower(strings.TrimSpace(loadDecimal)) {
	case ",", "comma":
		opt.Number.Decimal = ','
	case ".", "dot":
		opt.Number.Decimal = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", loadDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(loadThousands)) {
	case ",":
		opt.Number.Thousands = ','
	case ".":
		opt.Number.Thousands = '.'
	case "space", " ":
		opt.Number.Thousands = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", loadThousands)
	}
	opt.SheetName = loadSheet
	opt.SheetIndex = loadSheetIdx
	return opt, nil
}

func loadDataset(path string) (*dataset.Dataset, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	return cfgpkg.Default()
}

// engine bundles the session store and resolver for one command run.
type engine struct {
	store    *session.Store
	resolver *resolver.Resolver
	external bool
}

func (e *engine) Close() { e.store.Close() }

func buildCatalog(c *cfgpkg.Global) (*intent.Catalog, error) {
	cat := intent.DefaultCatalog(c.MatchThreshold)
	if c.CatalogPath != "" {
		n, err := cat.LoadFile(c.CatalogPath)
		if err != nil {
			return nil, err
		}
		log.Debug("catalog extended", "path", c.CatalogPath, "templates", n)
	}
	return cat, nil
}

// buildReasoner returns nil when no provider is configured.
func buildReasoner(c *cfgpkg.Global, logger *slog.Logger) (resolver.Reasoner, error) {
	if c.Provider == "" || c.Provider == ai.ProviderNone {
		return nil, nil
	}
	rt, ok := ai.GetRuntime(c.Provider, ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	})
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", c.Provider, strings.Join(ai.Providers(), ", "))
	}
	model := c.Model
	if model == "" {
		model = ai.DefaultModel(c.Provider)
	}
	r, err := ai.NewReasoner(ai.ReasonerConfig{
		Runtime:     rt,
		Model:       model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newEngine(c *cfgpkg.Global) (*engine, error) {
	cat, err := buildCatalog(c)
	if err != nil {
		return nil, err
	}
	store := session.New(session.Config{TTL: c.SessionTTL(), Logger: log})
	rcfg := resolver.Config{
		Sessions:        store,
		Classifier:      intent.NewClassifier(cat, c.MatchThreshold),
		ExternalTimeout: c.ExternalTimeout(),
		SampleRows:      c.SampleRows,
		Engine:          analytics.Options{Horizon: c.ForecastHorizon},
		Logger:          log,
	}
	reasoner, err := buildReasoner(c, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	rcfg.Reasoner = reasoner
	res, err := resolver.New(rcfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &engine{store: store, resolver: res, external: rcfg.Reasoner != nil}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

// printResponse renders an answer for humans.
func printResponse(w io.Writer, resp resolver.Response) {
	fmt.Fprintln(w, resp.AnswerText)
	for _, s := range resp.Suggestions {
		fmt.Fprintf(w, "  • %s\n", s)
	}
	mode := string(resp.Source)
	if resp.Degraded {
		mode += ", external unavailable"
	}
	fmt.Fprintf(w, "\nConfidence: %.0f%% (%s)\n", resp.Confidence*100, mode)
	if d := resp.Chart; d != nil && d.Points() > 0 {
		fmt.Fprintf(w, "\nChart (%s): %s\n", d.Kind, d.Title)
		header := []string{"Category", "Value"}
		if d.Band != nil {
			header = append(header, "Lower", "Upper")
		}
		table := newTable(w, header...)
		for i, c := range d.Categories {
			row := []string{c, formatValue(d.Series[i])}
			if d.Band != nil {
				row = append(row, formatValue(d.Band.Lower[i]), formatValue(d.Band.Upper[i]))
			}
			table.Append(row)
		}
		table.Render()
	}
}

func formatValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// errNoQuestion is returned when a command needs a question and got none.
var errNoQuestion = errors.New("question cannot be empty")
