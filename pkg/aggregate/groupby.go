// pkg/aggregate/groupby.go
package aggregate

import (
	"sort"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// dimIndex maps a dimension's surrogate keys to its rows for fact joins.
func dimIndex(dim *model.Table, keyColumn string) map[int64]model.Row {
	index := make(map[int64]model.Row, dim.NumRows())
	for _, row := range dim.Rows {
		if key, ok := row[keyColumn].(int64); ok {
			index[key] = row
		}
	}
	return index
}

// reviewIndex maps order_id to the dim_reviews rows for that order. An
// order can carry several reviews, so the index holds slices.
func reviewIndex(dimReviews *model.Table) map[interface{}][]model.Row {
	index := make(map[interface{}][]model.Row, dimReviews.NumRows())
	for _, row := range dimReviews.Rows {
		if id := row["order_id"]; id != nil {
			index[id] = append(index[id], row)
		}
	}
	return index
}

// group accumulates the aggregate functions a summary table needs.
type group struct {
	sums     map[string]float64
	counts   map[string]int64
	distinct map[string]map[interface{}]struct{}
	first    map[string]interface{}
}

func newGroup() *group {
	return &group{
		sums:     make(map[string]float64),
		counts:   make(map[string]int64),
		distinct: make(map[string]map[interface{}]struct{}),
		first:    make(map[string]interface{}),
	}
}

func (g *group) add(name string, v interface{}) {
	f, ok := asFloat64(v)
	if !ok {
		return
	}
	g.sums[name] += f
	g.counts[name]++
}

func (g *group) count(name string) {
	g.counts[name]++
}

func (g *group) addDistinct(name string, v interface{}) {
	if v == nil {
		return
	}
	set, ok := g.distinct[name]
	if !ok {
		set = make(map[interface{}]struct{})
		g.distinct[name] = set
	}
	set[v] = struct{}{}
}

// keep remembers a descriptive attribute for the group, first value wins.
func (g *group) keep(name string, v interface{}) {
	if _, ok := g.first[name]; !ok {
		g.first[name] = v
	}
}

func (g *group) sum(name string) float64 {
	return g.sums[name]
}

func (g *group) total(name string) int64 {
	return g.counts[name]
}

func (g *group) distinctCount(name string) int64 {
	return int64(len(g.distinct[name]))
}

func (g *group) mean(name string) float64 {
	if g.counts[name] == 0 {
		return 0
	}
	return g.sums[name] / float64(g.counts[name])
}

// groups is a group-by accumulator keyed by the rendered group key.
type groups struct {
	byKey map[string]*group
	order []string
}

func newGroups() *groups {
	return &groups{byKey: make(map[string]*group)}
}

func (gs *groups) at(key string) *group {
	g, ok := gs.byKey[key]
	if !ok {
		g = newGroup()
		gs.byKey[key] = g
		gs.order = append(gs.order, key)
	}
	return g
}

// sortedKeys returns the group keys in lexical order, the order summary
// rows are emitted in.
func (gs *groups) sortedKeys() []string {
	keys := append([]string(nil), gs.order...)
	sort.Strings(keys)
	return keys
}

// asFloat64 reads any numeric cell as float64.
func asFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
