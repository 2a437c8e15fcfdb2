package profile

import (
	"math"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/dataset"
)

// Type is the inferred semantic type of a column.
type Type string

const (
	Numeric     Type = "numeric"
	Categorical Type = "categorical"
	Temporal    Type = "temporal"
	Identifier  Type = "identifier"
)

// temporalShare is the fraction of non-null cells that must parse as dates.
const temporalShare = 0.9

// ColumnProfile describes one column of a dataset.
type ColumnProfile struct {
	Name        string `json:"name"`
	Index       int    `json:"index"`
	Type        Type   `json:"type"`
	Cardinality int    `json:"cardinality"`
	Nulls       int    `json:"null_count"`
	NonNull     int    `json:"non_null"`
}

// Schema is the ordered column catalog of a dataset.
type Schema struct {
	Rows    int
	Columns []ColumnProfile
}

// Profile infers a semantic type for every column in one pass over the cells.
// It never fails: a column that cannot be resolved is categorical.
func Profile(ds *dataset.Dataset) Schema {
	if ds == nil {
		return Schema{}
	}
	nrows, ncols := ds.NumRows(), ds.NumCols()
	type colAcc struct {
		nonNull  int
		nulls    int
		numCnt   int
		dtCnt    int
		integral bool
		distinct map[string]struct{}
	}
	accs := make([]*colAcc, ncols)
	for j := range accs {
		accs[j] = &colAcc{integral: true, distinct: make(map[string]struct{})}
	}
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			c := accs[j]
			v := ds.Cell(i, j)
			if v == "" {
				c.nulls++
				continue
			}
			c.nonNull++
			c.distinct[v] = struct{}{}
			if x, ok := ds.Float(i, j); ok {
				c.numCnt++
				if x != math.Trunc(x) {
					c.integral = false
				}
				continue
			}
			if _, ok := ds.Time(i, j); ok {
				c.dtCnt++
			}
		}
	}

	s := Schema{Rows: nrows, Columns: make([]ColumnProfile, ncols)}
	for j, c := range accs {
		cp := ColumnProfile{
			Name:        ds.Column(j),
			Index:       j,
			Cardinality: len(c.distinct),
			Nulls:       c.nulls,
			NonNull:     c.nonNull,
		}
		unique := cp.Cardinality == nrows && nrows > 1
		switch {
		case c.nonNull == 0:
			cp.Type = Categorical
		case float64(c.dtCnt) > temporalShare*float64(c.nonNull):
			cp.Type = Temporal
		case c.numCnt == c.nonNull:
			cp.Type = Numeric
			if unique && c.integral && looksLikeID(cp.Name) {
				cp.Type = Identifier
			}
		case unique:
			cp.Type = Identifier
		default:
			cp.Type = Categorical
		}
		s.Columns[j] = cp
	}
	return s
}

func looksLikeID(name string) bool {
	trimmed := strings.TrimSpace(name)
	if strings.HasSuffix(trimmed, "Id") || strings.HasSuffix(trimmed, "ID") {
		return true
	}
	n := strings.ToLower(trimmed)
	switch n {
	case "id", "key", "code", "uuid", "sku":
		return true
	}
	for _, suf := range []string{"_id", " id", "-id", "_key", "_code"} {
		if strings.HasSuffix(n, suf) {
			return true
		}
	}
	return false
}

// Lookup finds a column by case-insensitive name.
func (s Schema) Lookup(name string) (ColumnProfile, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// OfType returns the columns of type t in schema order.
func (s Schema) OfType(t Type) []ColumnProfile {
	var out []ColumnProfile
	for _, c := range s.Columns {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func (s Schema) Numeric() []ColumnProfile     { return s.OfType(Numeric) }
func (s Schema) Temporal() []ColumnProfile    { return s.OfType(Temporal) }
func (s Schema) Categorical() []ColumnProfile { return s.OfType(Categorical) }
func (s Schema) Identifiers() []ColumnProfile { return s.OfType(Identifier) }

// First returns the first column of type t.
func (s Schema) First(t Type) (ColumnProfile, bool) {
	for _, c := range s.Columns {
		if c.Type == t {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Labels returns the first categorical column, falling back to the first identifier.
func (s Schema) Labels() (ColumnProfile, bool) {
	if c, ok := s.First(Categorical); ok {
		return c, true
	}
	return s.First(Identifier)
}
