package reader

import (
	"bytes"
	"math/big"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/vegasq/parqsee/value"
)

const (
	julianUnixEpoch = 2_440_588
	nanosPerDay     = int64(86_400) * 1_000_000_000
)

// assembler rebuilds nested records from the flat leaf values of a row.
type assembler struct {
	schema  *Schema
	columns [][]parquet.Value
	cursors []int
}

func newAssembler(s *Schema) *assembler {
	return &assembler{
		schema:  s,
		columns: make([][]parquet.Value, len(s.Leaves)),
		cursors: make([]int, len(s.Leaves)),
	}
}

// assemble converts one row into a Record of the top-level fields.
func (a *assembler) assemble(row parquet.Row) value.Record {
	for i := range a.columns {
		a.columns[i] = a.columns[i][:0]
		a.cursors[i] = 0
	}
	for _, v := range row {
		c := v.Column()
		if c >= 0 && c < len(a.columns) {
			a.columns[c] = append(a.columns[c], v)
		}
	}

	fields := a.schema.Fields()
	rec := make(value.Record, 0, len(fields))
	for _, f := range fields {
		rec = append(rec, value.Field{Name: f.Name, Value: a.readField(f)})
	}
	return rec
}

// peek returns the next unread value of n's first leaf.
func (a *assembler) peek(n *Node) (parquet.Value, bool) {
	if n.numLeaves == 0 {
		return parquet.Value{}, false
	}
	col := n.firstLeaf
	if a.cursors[col] >= len(a.columns[col]) {
		return parquet.Value{}, false
	}
	return a.columns[col][a.cursors[col]], true
}

// skip consumes the single placeholder value every leaf under n holds for an
// undefined instance of n.
func (a *assembler) skip(n *Node) {
	for col := n.firstLeaf; col < n.firstLeaf+n.numLeaves; col++ {
		if a.cursors[col] < len(a.columns[col]) {
			a.cursors[col]++
		}
	}
}

func (a *assembler) readField(n *Node) value.Value {
	switch n.Repetition {
	case Repeated:
		return a.readRepeated(n, func() value.Value { return a.readInstance(n) })
	case Optional:
		v, ok := a.peek(n)
		if !ok || v.DefinitionLevel() < n.DefLevel {
			a.skip(n)
			return value.Null{}
		}
	}
	return a.readInstance(n)
}

func (a *assembler) readRepeated(n *Node, item func() value.Value) value.List {
	list := value.List{}
	v, ok := a.peek(n)
	if !ok || v.DefinitionLevel() < n.DefLevel {
		a.skip(n)
		return list
	}
	for {
		list = append(list, item())
		v, ok = a.peek(n)
		if !ok || v.RepetitionLevel() != n.RepLevel {
			return list
		}
	}
}

func (a *assembler) readInstance(n *Node) value.Value {
	if n.IsLeaf() {
		col := n.Column
		if a.cursors[col] >= len(a.columns[col]) {
			return value.Null{}
		}
		v := a.columns[col][a.cursors[col]]
		a.cursors[col]++
		return decode(v, n.Tags)
	}
	if n.numLeaves == 0 {
		return value.Record{}
	}

	switch n.Tags.Logical {
	case LogicalList:
		if list, ok := a.readList(n); ok {
			return list
		}
	case LogicalMap, LogicalMapKeyValue:
		if m, ok := a.readMap(n); ok {
			return m
		}
	}

	rec := make(value.Record, 0, len(n.Children))
	for _, child := range n.Children {
		rec = append(rec, value.Field{Name: child.Name, Value: a.readField(child)})
	}
	return rec
}

// readList reads a LIST-annotated group. The repeated child is either the
// standard wrapper around a single element, or in legacy files the element
// itself.
func (a *assembler) readList(n *Node) (value.Value, bool) {
	if !isListShape(n) {
		return nil, false
	}
	rep := n.Children[0]
	if isElementWrapper(n, rep) {
		elem := rep.Children[0]
		return a.readRepeated(rep, func() value.Value { return a.readField(elem) }), true
	}
	return a.readRepeated(rep, func() value.Value { return a.readInstance(rep) }), true
}

func isElementWrapper(list, rep *Node) bool {
	if rep.IsLeaf() || len(rep.Children) != 1 {
		return false
	}
	return rep.Name != "array" && rep.Name != list.Name+"_tuple"
}

// readMap reads a MAP-annotated group holding a repeated key/value group.
func (a *assembler) readMap(n *Node) (value.Value, bool) {
	if !isMapShape(n) {
		return nil, false
	}
	kv := n.Children[0]
	entries := value.Map{}
	a.readRepeated(kv, func() value.Value {
		entry := value.MapEntry{Key: a.readField(kv.Children[0]), Value: value.Null{}}
		if len(kv.Children) == 2 {
			entry.Value = a.readField(kv.Children[1])
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, true
}

// decode converts a leaf value according to its resolved tags.
func decode(v parquet.Value, tags TypeTags) value.Value {
	if v.IsNull() {
		return value.Null{}
	}

	switch tags.decoding() {
	case decodeString:
		return value.String(v.ByteArray())
	case decodeDate:
		return value.Date(v.Int32())
	case decodeTimeMillis:
		return value.TimeMillis(v.Int32())
	case decodeTimeMicros:
		return value.TimeMicros(v.Int64())
	case decodeTimeNanos:
		return value.TimeNanos(v.Int64())
	case decodeTimestampMillis:
		return value.TimestampMillis(v.Int64())
	case decodeTimestampMicros:
		return value.TimestampMicros(v.Int64())
	case decodeTimestampNanos:
		if v.Kind() == parquet.Int96 {
			return int96Timestamp(v)
		}
		return value.TimestampNanos(v.Int64())
	case decodeDecimal:
		return decodeDecimalValue(v, tags)
	case decodeInt8:
		return value.Int8(integer(v))
	case decodeInt16:
		return value.Int16(integer(v))
	case decodeUint8:
		return value.Uint8(integer(v))
	case decodeUint16:
		return value.Uint16(integer(v))
	case decodeUint32:
		return value.Uint32(integer(v))
	case decodeUint64:
		return value.Uint64(v.Int64())
	case decodeFloat16:
		if b := v.ByteArray(); len(b) == 2 {
			return value.Float16(uint16(b[0]) | uint16(b[1])<<8)
		}
	case decodeUUID:
		id, err := uuid.FromBytes(v.ByteArray())
		if err != nil {
			return value.Bytes(bytes.Clone(v.ByteArray()))
		}
		return value.String(id.String())
	}

	switch v.Kind() {
	case parquet.Boolean:
		return value.Bool(v.Boolean())
	case parquet.Int32:
		return value.Int32(v.Int32())
	case parquet.Int64:
		return value.Int64(v.Int64())
	case parquet.Int96:
		return int96Timestamp(v)
	case parquet.Float:
		return value.Float32(v.Float())
	case parquet.Double:
		return value.Float64(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return value.Bytes(bytes.Clone(v.ByteArray()))
	}
	return value.Null{}
}

func integer(v parquet.Value) int64 {
	if v.Kind() == parquet.Int32 {
		return int64(v.Int32())
	}
	return v.Int64()
}

// int96Timestamp decodes the legacy 12-byte timestamp: nanoseconds within
// the day followed by the Julian day number.
func int96Timestamp(v parquet.Value) value.Value {
	i96 := v.Int96()
	nanos := int64(uint64(i96[1])<<32 | uint64(i96[0]))
	days := int64(i96[2]) - julianUnixEpoch
	return value.TimestampNanos(days*nanosPerDay + nanos)
}

func decodeDecimalValue(v parquet.Value, tags TypeTags) value.Value {
	d := value.Decimal{Precision: tags.Precision, Scale: tags.Scale}
	switch *tags.Physical {
	case format.Int32:
		d.Unscaled = big.NewInt(int64(v.Int32()))
	case format.Int64:
		d.Unscaled = big.NewInt(v.Int64())
	default:
		d.Unscaled = twosComplement(v.ByteArray())
	}
	return d
}

// twosComplement decodes a big-endian two's complement integer.
func twosComplement(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}
