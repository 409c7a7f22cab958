package extract

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a string-keyed map that remembers insertion order and
// marshals to a JSON object in that order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap returns an empty map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its position; the
// return value reports whether a previous value was replaced.
func (m *OrderedMap[V]) Set(key string, value V) bool {
	_, exists := m.values[key]
	if !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return exists
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
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

// Nesting levels of a document: section -> line item -> period label -> value.
type (
	PeriodValues = OrderedMap[string]
	LineItems    = OrderedMap[*PeriodValues]
	Sections     = OrderedMap[*LineItems]
)

// Document is the extraction result for one table.
type Document struct {
	Table    int       `json:"table"`
	Strategy string    `json:"strategy"`
	Periods  []Period  `json:"periods"`
	Sections *Sections `json:"sections"`
	Warnings []string  `json:"warnings,omitempty"`
}

func newDocument(index int, strategy string) *Document {
	return &Document{
		Table:    index,
		Strategy: strategy,
		Periods:  []Period{},
		Sections: NewOrderedMap[*LineItems](),
	}
}

// openSection makes sure a section exists, keeping its first position when
// the same name shows up again.
func (d *Document) openSection(name string) *LineItems {
	if items, ok := d.Sections.Get(name); ok {
		return items
	}
	items := NewOrderedMap[*PeriodValues]()
	d.Sections.Set(name, items)
	return items
}

// set stores one value and reports whether it replaced an earlier one.
func (d *Document) set(section, item, period, value string) bool {
	items := d.openSection(section)
	values, ok := items.Get(item)
	if !ok {
		values = NewOrderedMap[string]()
		items.Set(item, values)
	}
	return values.Set(period, value)
}

// Value looks up a single projected value.
func (d *Document) Value(section, item, period string) (string, bool) {
	items, ok := d.Sections.Get(section)
	if !ok {
		return "", false
	}
	values, ok := items.Get(item)
	if !ok {
		return "", false
	}
	return values.Get(period)
}

// Items returns the line-item labels of a section in table order.
func (d *Document) Items(section string) []string {
	items, ok := d.Sections.Get(section)
	if !ok {
		return nil
	}
	return items.Keys()
}

// PeriodLabels returns the period labels recorded for one line item.
func (d *Document) PeriodLabels(section, item string) []string {
	items, ok := d.Sections.Get(section)
	if !ok {
		return nil
	}
	values, ok := items.Get(item)
	if !ok {
		return nil
	}
	return values.Keys()
}

func (d *Document) warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}
