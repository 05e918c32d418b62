package value

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value interface{}
}

// Object is a JSON object that keeps its keys in insertion order.
//
// Rows are encoded as Objects so that column order survives marshalling.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (interface{}, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set stores v under key. An existing key keeps its position and has its
// value overwritten.
func (o *Object) Set(key string, v interface{}) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = v
			return
		}
	}
	*o = append(*o, Member{Key: key, Value: v})
}

// Keys returns the keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Map converts o, and any nested Objects or arrays, into plain Go maps and
// slices. Key order is lost.
func (o Object) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(o))
	for _, member := range o {
		m[member.Key] = plain(member.Value)
	}
	return m
}

func plain(v interface{}) interface{} {
	switch val := v.(type) {
	case Object:
		return val.Map()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes the members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
