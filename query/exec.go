package query

import (
	"errors"
	"slices"
	"strings"

	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

// errStop ends a scan once enough rows were produced.
var errStop = errors.New("stop scan")

// batcher groups result rows into batches of a fixed size.
type batcher struct {
	size    int
	batches [][]value.Record
	current []value.Record
}

func (b *batcher) add(rec value.Record) {
	if b.current == nil {
		b.current = make([]value.Record, 0, b.size)
	}
	b.current = append(b.current, rec)
	if len(b.current) == b.size {
		b.batches = append(b.batches, b.current)
		b.current = nil
	}
}

func (b *batcher) finish() [][]value.Record {
	if len(b.current) > 0 {
		b.batches = append(b.batches, b.current)
		b.current = nil
	}
	return b.batches
}

func (s *Session) execute(p *plan) (*Result, error) {
	res := &Result{Columns: make([]ResultColumn, len(p.outputs))}
	for i, o := range p.outputs {
		res.Columns[i] = ResultColumn{Name: o.name, DataType: o.label}
	}

	out := &batcher{size: s.batchSize}
	var err error
	switch {
	case p.streaming():
		err = s.executeStreaming(p, out)
	default:
		err = s.executeMaterialized(p, out)
	}
	if err != nil {
		return nil, err
	}
	res.Batches = out.finish()
	return res, nil
}

// project evaluates the select list for one row.
func (p *plan) project(e *env) (value.Record, error) {
	rec := make(value.Record, len(p.outputs))
	for i, o := range p.outputs {
		v, err := o.expr.Eval(e)
		if err != nil {
			return nil, err
		}
		rec[i] = value.Field{Name: o.name, Value: v}
	}
	return rec, nil
}

// executeStreaming projects rows as they are scanned. Without a filter the
// OFFSET and LIMIT go to the scan itself.
func (s *Session) executeStreaming(p *plan, out *batcher) error {
	if p.limit == 0 {
		return nil
	}

	opts := reader.ScanOptions{Limit: -1, BatchSize: s.batchSize}
	skip, remaining := p.offset, p.limit
	if p.where == nil {
		opts.Offset, opts.Limit = p.offset, p.limit
		skip, remaining = 0, -1
	}

	err := p.table.Scan(opts, func(batch []value.Record) error {
		for _, row := range batch {
			e := &env{row: row}
			if p.where != nil {
				ok, err := matches(p.where, e)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			if skip > 0 {
				skip--
				continue
			}
			rec, err := p.project(e)
			if err != nil {
				return err
			}
			out.add(rec)
			if remaining > 0 {
				remaining--
				if remaining == 0 {
					return errStop
				}
			}
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

// resultRow is a projected row with its sort keys.
type resultRow struct {
	rec  value.Record
	keys []value.Value
}

// executeMaterialized handles aggregation, DISTINCT and ORDER BY, which need
// every input row before producing output.
func (s *Session) executeMaterialized(p *plan, out *batcher) error {
	var envs []*env
	var err error
	if p.aggregate {
		envs, err = s.aggregateRows(p)
	} else {
		err = p.table.Scan(reader.ScanOptions{Limit: -1, BatchSize: s.batchSize}, func(batch []value.Record) error {
			for _, row := range batch {
				e := &env{row: row}
				if p.where != nil {
					ok, err := matches(p.where, e)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}
				envs = append(envs, e)
			}
			return nil
		})
	}
	if err != nil {
		return err
	}

	rows := make([]resultRow, 0, len(envs))
	seen := make(map[string]bool)
	for _, e := range envs {
		if p.having != nil {
			ok, err := matches(p.having, e)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		rec, err := p.project(e)
		if err != nil {
			return err
		}
		if p.distinct {
			key := recordKey(rec)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		row := resultRow{rec: rec}
		if len(p.order) > 0 {
			row.keys = make([]value.Value, len(p.order))
			for i, k := range p.order {
				if row.keys[i], err = k.expr.Eval(e); err != nil {
					return err
				}
			}
		}
		rows = append(rows, row)
	}

	if len(p.order) > 0 {
		if err := sortRows(rows, p.order); err != nil {
			return err
		}
	}

	start := min(p.offset, int64(len(rows)))
	end := int64(len(rows))
	if p.limit >= 0 && p.limit < end-start {
		end = start + p.limit
	}
	for _, row := range rows[start:end] {
		out.add(row.rec)
	}
	return nil
}

// group is the running state of one GROUP BY key.
type group struct {
	rep  value.Record
	accs []accumulator
}

func (p *plan) newGroup(rep value.Record) *group {
	g := &group{rep: rep, accs: make([]accumulator, len(p.aggs))}
	for i, agg := range p.aggs {
		g.accs[i] = newAccumulator(agg)
	}
	return g
}

func (g *group) env() *env {
	aggs := make([]value.Value, len(g.accs))
	for i, acc := range g.accs {
		aggs[i] = acc.result()
	}
	return &env{row: g.rep, aggs: aggs}
}

// countOnly reports whether every aggregate is COUNT(*) over the whole
// table, which the row count in the footer answers.
func (p *plan) countOnly() bool {
	if p.where != nil || len(p.groupBy) > 0 || len(p.aggs) == 0 {
		return false
	}
	for _, agg := range p.aggs {
		if agg.Function != "COUNT" || agg.Arg != nil {
			return false
		}
	}
	return true
}

// aggregateRows folds the filtered input into one env per group, in order
// of first appearance. Without GROUP BY there is exactly one group.
func (s *Session) aggregateRows(p *plan) ([]*env, error) {
	if p.countOnly() {
		n := value.Int64(p.table.NumRows())
		aggs := make([]value.Value, len(p.aggs))
		for i := range aggs {
			aggs[i] = n
		}
		return []*env{{aggs: aggs}}, nil
	}

	groups := make(map[string]*group)
	var order []*group
	if len(p.groupBy) == 0 {
		g := p.newGroup(nil)
		groups[""] = g
		order = append(order, g)
	}

	var keyBuilder strings.Builder
	err := p.table.Scan(reader.ScanOptions{Limit: -1, BatchSize: s.batchSize}, func(batch []value.Record) error {
		for _, row := range batch {
			e := &env{row: row}
			if p.where != nil {
				ok, err := matches(p.where, e)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}

			keyBuilder.Reset()
			for _, g := range p.groupBy {
				v, err := g.Eval(e)
				if err != nil {
					return err
				}
				keyBuilder.WriteString(groupKey(v))
				keyBuilder.WriteByte(0x1f)
			}
			key := keyBuilder.String()

			g, ok := groups[key]
			if !ok {
				g = p.newGroup(row)
				groups[key] = g
				order = append(order, g)
			}
			if g.rep == nil {
				g.rep = row
			}

			for i, agg := range p.aggs {
				var v value.Value = value.Bool(true)
				if agg.Arg != nil {
					var err error
					if v, err = agg.Arg.Eval(e); err != nil {
						return err
					}
				}
				if err := g.accs[i].add(v); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	envs := make([]*env, len(order))
	for i, g := range order {
		envs[i] = g.env()
	}
	return envs, nil
}

// recordKey identifies a projected row for DISTINCT.
func recordKey(rec value.Record) string {
	var sb strings.Builder
	for _, f := range rec {
		sb.WriteString(groupKey(f.Value))
		sb.WriteByte(0x1f)
	}
	return sb.String()
}

// sortRows orders rows by their keys. Rows with equal keys keep input order.
func sortRows(rows []resultRow, order []sortKey) error {
	var sortErr error
	slices.SortStableFunc(rows, func(a, b resultRow) int {
		for i, k := range order {
			av, bv := a.keys[i], b.keys[i]
			an, bn := value.IsNull(av), value.IsNull(bv)
			switch {
			case an && bn:
				continue
			case an || bn:
				if an == k.nullsFirst {
					return -1
				}
				return 1
			}
			cmp, err := compare(av, bv)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return 0
			}
			if cmp != 0 {
				if k.desc {
					return -cmp
				}
				return cmp
			}
		}
		return 0
	})
	return sortErr
}
