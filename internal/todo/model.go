package todo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID identifies an item across both categories. It is opaque to callers.
type ID string

// NewID returns a fresh time-ordered id.
func NewID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		return ID(uuid.NewString())
	}
	return ID(u.String())
}

func (id ID) String() string { return string(id) }

// Short is the 8-character suffix shown in listings; ResolveID accepts it.
func (id ID) Short() string {
	s := string(id)
	// v7 ids share their leading timestamp bits; the tail is the distinctive part.
	if len(s) > 8 {
		return s[len(s)-8:]
	}
	return s
}

type Category int

const (
	Work Category = iota
	Travel
)

// Categories lists every category in tab order.
var Categories = []Category{Work, Travel}

func (c Category) String() string {
	switch c {
	case Work:
		return "WORK"
	case Travel:
		return "TRAVEL"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Label is the tab title.
func (c Category) Label() string {
	switch c {
	case Work:
		return "Work"
	case Travel:
		return "Travel"
	default:
		return c.String()
	}
}

func (c Category) Valid() bool { return c == Work || c == Travel }

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCategory accepts "WORK"/"TRAVEL" in any case.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WORK":
		return Work, nil
	case "TRAVEL":
		return Travel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

type Status int

const (
	Incomplete Status = 0
	Complete   Status = 1
)

func (s Status) String() string {
	if s == Complete {
		return "complete"
	}
	return "incomplete"
}

func (s Status) Toggle() Status {
	if s == Complete {
		return Incomplete
	}
	return Complete
}

type Item struct {
	ID       ID
	Text     string
	Category Category
	Status   Status
}

func (it Item) Done() bool { return it.Status == Complete }
