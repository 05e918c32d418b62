package reader

import (
	"testing"

	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func element(name string, typ *format.Type, rep format.FieldRepetitionType, children int32) format.SchemaElement {
	return format.SchemaElement{Name: name, Type: typ, RepetitionType: ptr(rep), NumChildren: children}
}

func TestBuildSchema_Levels(t *testing.T) {
	// message m {
	//   required int64 id;
	//   optional group tags (LIST) {
	//     repeated group list {
	//       optional binary element (STRING);
	//     }
	//   }
	//   optional group loc { required binary city; optional double lat; }
	// }
	elements := []format.SchemaElement{
		{Name: "m", NumChildren: 3},
		element("id", ptr(format.Int64), format.Required, 0),
		element("tags", nil, format.Optional, 1),
		element("list", nil, format.Repeated, 1),
		element("element", ptr(format.ByteArray), format.Optional, 0),
		element("loc", nil, format.Optional, 2),
		element("city", ptr(format.ByteArray), format.Required, 0),
		element("lat", ptr(format.Double), format.Optional, 0),
	}
	elements[2].LogicalType = &format.LogicalType{List: &format.ListType{}}
	elements[4].LogicalType = &format.LogicalType{UTF8: &format.StringType{}}

	s, err := BuildSchema(elements)
	require.NoError(t, err)

	fields := s.Fields()
	require.Len(t, fields, 3)
	require.Len(t, s.Leaves, 4)

	id, tags, loc := fields[0], fields[1], fields[2]
	assert.Equal(t, 0, id.Column)
	assert.Equal(t, 0, id.DefLevel)
	assert.True(t, id.IsLeaf())

	assert.Equal(t, LogicalList, tags.Tags.Logical)
	assert.Equal(t, Optional, tags.Repetition)
	assert.Equal(t, 1, tags.DefLevel)
	list := tags.Children[0]
	assert.Equal(t, 2, list.DefLevel)
	assert.Equal(t, 1, list.RepLevel)
	elem := list.Children[0]
	assert.Equal(t, 3, elem.DefLevel)
	assert.Equal(t, 1, elem.RepLevel)
	assert.Equal(t, 1, elem.Column)

	assert.Equal(t, -1, loc.Column)
	assert.Equal(t, 2, loc.firstLeaf)
	assert.Equal(t, 2, loc.numLeaves)
	assert.Equal(t, 2, loc.Children[1].DefLevel)
	assert.Equal(t, "lat", s.Leaves[3].Name)
}

func TestBuildSchema_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		elements []format.SchemaElement
	}{
		{"empty", nil},
		{"truncated group", []format.SchemaElement{{Name: "m", NumChildren: 2}, element("a", ptr(format.Int32), format.Required, 0)}},
		{"trailing elements", []format.SchemaElement{{Name: "m", NumChildren: 0}, element("a", ptr(format.Int32), format.Required, 0)}},
		{"leaf without type", []format.SchemaElement{{Name: "m", NumChildren: 1}, element("a", nil, format.Required, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSchema(tt.elements)
			assert.Error(t, err)
		})
	}
}
