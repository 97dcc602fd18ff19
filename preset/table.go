package preset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
)

// Names of the built-in presets, in table order.
const (
	Black  = "black"
	Green  = "green"
	Yellow = "yellow"
	Blue   = "blue"
	Red    = "red"
)

// Table is an ordered mapping from preset name to HSV range. Setting an
// existing name overwrites it in place; new names are appended.
type Table struct {
	names  []string
	ranges map[string]imgproc.Range
}

func NewTable() *Table {
	return &Table{ranges: make(map[string]imgproc.Range)}
}

// Defaults returns a table holding only the built-in presets.
func Defaults() *Table {
	t := NewTable()
	t.Set(Black, imgproc.Range{Lower: imgproc.Triple{0, 0, 0}, Upper: imgproc.Triple{180, 255, 50}})
	t.Set(Green, imgproc.Range{Lower: imgproc.Triple{35, 100, 100}, Upper: imgproc.Triple{85, 255, 255}})
	t.Set(Yellow, imgproc.Range{Lower: imgproc.Triple{20, 100, 100}, Upper: imgproc.Triple{30, 255, 255}})
	t.Set(Blue, imgproc.Range{Lower: imgproc.Triple{100, 100, 100}, Upper: imgproc.Triple{130, 255, 255}})
	t.Set(Red, imgproc.Range{Lower: imgproc.Triple{0, 100, 100}, Upper: imgproc.Triple{10, 255, 255}})
	return t
}

func (t *Table) Get(name string) (imgproc.Range, bool) {
	r, ok := t.ranges[name]
	return r, ok
}

func (t *Table) Set(name string, r imgproc.Range) {
	if _, ok := t.ranges[name]; !ok {
		t.names = append(t.names, name)
	}
	t.ranges[name] = r
}

// Names returns the preset names in table order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

func (t *Table) Len() int {
	return len(t.names)
}

// Merge copies every entry of other into t, overwriting by name.
func (t *Table) Merge(other *Table) {
	for _, name := range other.names {
		t.Set(name, other.ranges[name])
	}
}

func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.ranges[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the table contents with the object in data,
// keeping the object's key order.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("presets must be a JSON object, got %v", tok)
	}

	parsed := NewTable()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)

		var r imgproc.Range
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		parsed.Set(name, r)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = *parsed
	return nil
}
