package todo

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Collection maps ids to items and remembers insertion order.
type Collection struct {
	items *orderedmap.OrderedMap[ID, Item]
}

func NewCollection() *Collection {
	return &Collection{items: orderedmap.New[ID, Item]()}
}

func (c *Collection) Len() int { return c.items.Len() }

func (c *Collection) Get(id ID) (Item, bool) {
	return c.items.Get(id)
}

// Put inserts or replaces an item; a new id goes to the end.
func (c *Collection) Put(it Item) {
	c.items.Set(it.ID, it)
}

func (c *Collection) Delete(id ID) bool {
	_, ok := c.items.Delete(id)
	return ok
}

// All yields every item in insertion order.
func (c *Collection) All() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for pair := c.items.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// ByCategory yields the items of one category in insertion order.
// The sequence reads the live collection each time it is ranged over.
func (c *Collection) ByCategory(cat Category) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for it := range c.All() {
			if it.Category != cat {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// Equal compares ids, text, category, status and order.
func (c *Collection) Equal(other *Collection) bool {
	if c.Len() != other.Len() {
		return false
	}
	a, b := c.items.Oldest(), other.items.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Value != b.Value {
			return false
		}
	}
	return a == nil && b == nil
}

// record is the persisted shape of one item under the "todos" key.
type record struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
}

// MarshalJSON writes {"<id>": {"text", "category", "status"}, ...} in
// collection order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, record]()
	for it := range c.All() {
		out.Set(string(it.ID), record{Text: it.Text, Category: it.Category, Status: it.Status})
	}
	return json.Marshal(out)
}

// DecodeReport lists entries skipped while decoding.
type DecodeReport struct {
	Skipped []string
}

// DecodeCollection parses a "todos" blob. Malformed entries are skipped and
// listed in the report; a blob that is not a JSON object is an error.
func DecodeCollection(b []byte) (*Collection, DecodeReport, error) {
	var report DecodeReport
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, report, fmt.Errorf("decode todos: %w", err)
	}

	col := NewCollection()
	if raw == nil {
		// Literal null.
		return col, report, nil
	}
	for key, msg := range raw.FromOldest() {
		id := ID(key)
		if strings.TrimSpace(key) == "" {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%q: empty id", key))
			continue
		}
		var rec struct {
			Text     string          `json:"text"`
			Category string          `json:"category"`
			Status   json.RawMessage `json:"status"`
		}
		if err := json.Unmarshal(msg, &rec); err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		text := strings.TrimSpace(rec.Text)
		if text == "" {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: empty text", key))
			continue
		}
		cat, err := ParseCategory(rec.Category)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		col.Put(Item{ID: id, Text: text, Category: cat, Status: decodeStatus(rec.Status)})
	}
	return col, report, nil
}

// decodeStatus treats anything but 1 (or true) as incomplete.
func decodeStatus(msg json.RawMessage) Status {
	switch strings.TrimSpace(string(msg)) {
	case "1", "true":
		return Complete
	default:
		return Incomplete
	}
}
