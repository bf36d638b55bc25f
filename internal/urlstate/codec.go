package urlstate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// ErrListSeparator is returned when a toggled value contains the comma that
// separates list items in the URL.
var ErrListSeparator = errors.New("value contains the list separator \",\"")

// Updates maps parameter names to new values. A nil value deletes the key.
type Updates map[string]*string

// Str returns a pointer to s for use in Updates.
func Str(s string) *string {
	return &s
}

// Codec is the write path onto a Store. Each call reconstructs its result from
// the URL at call time.
type Codec struct {
	store *Store
}

// NewCodec creates a codec writing to store.
func NewCodec(store *Store) *Codec {
	return &Codec{store: store}
}

// Store returns the underlying store.
func (c *Codec) Store() *Store {
	return c.store
}

// Decode returns the query currently held by the store.
func (c *Codec) Decode() models.SearchQuery {
	return Decode(c.store.Values())
}

// Encode merges updates into the current URL. Keys absent from updates are kept.
// Unless updates contains "page", the page is reset to "1".
func (c *Codec) Encode(updates Updates, mode NavMode) {
	c.store.Update(func(v url.Values) url.Values {
		return Merge(v, updates)
	}, mode)
}

// Merge applies updates to a copy of v following the Encode rules.
func Merge(v url.Values, updates Updates) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	for k, val := range updates {
		if val == nil {
			out.Del(k)
			continue
		}
		out.Set(k, *val)
	}
	if _, ok := updates[KeyPage]; !ok {
		out.Set(KeyPage, "1")
	}
	return out
}

// Toggle adds value to the comma list under key, or removes it when present.
// An empty resulting list deletes the key. Recorded as a push navigation.
// Values containing a comma cannot round-trip through the list and are rejected.
func (c *Codec) Toggle(key, value string) error {
	if strings.Contains(value, ",") {
		return fmt.Errorf("toggle %s=%q: %w", key, value, ErrListSeparator)
	}
	c.store.Update(func(v url.Values) url.Values {
		return Merge(v, Updates{key: toggled(v.Get(key), value)})
	}, Push)
	return nil
}

func toggled(current, value string) *string {
	list := SplitList(current)
	out := make([]string, 0, len(list)+1)
	found := false
	for _, item := range list {
		if item == value {
			found = true
			continue
		}
		out = append(out, item)
	}
	if !found && value != "" {
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return Str(JoinList(out))
}

// ClearFilters resets the URL to contain only q=term, dropping sort, page,
// facet and discount state. An empty term leaves an empty URL.
func (c *Codec) ClearFilters(term string) {
	c.store.Update(func(url.Values) url.Values {
		v := url.Values{}
		if term != "" {
			v.Set(KeyTerm, term)
		}
		return v
	}, Push)
}

// SetDiscount enables or disables the discount filter. When enabling, rng is
// written as the initial range; disabling removes every discount parameter.
func (c *Codec) SetDiscount(enabled bool, rng models.PriceRange) {
	if !enabled {
		c.Encode(Updates{
			KeyFilterByDiscount: nil,
			KeyMinDiscountPrice: nil,
			KeyMaxDiscountPrice: nil,
		}, Push)
		return
	}
	c.Encode(Updates{
		KeyFilterByDiscount: Str("true"),
		KeyMinDiscountPrice: Str(FormatPrice(rng.Min)),
		KeyMaxDiscountPrice: Str(FormatPrice(rng.Max)),
	}, Push)
}

// SetDiscountRange writes the slider range using replace navigation so that
// dragging does not grow history.
func (c *Codec) SetDiscountRange(rng models.PriceRange) {
	if rng.Min > rng.Max {
		rng.Min, rng.Max = rng.Max, rng.Min
	}
	c.Encode(Updates{
		KeyMinDiscountPrice: Str(FormatPrice(rng.Min)),
		KeyMaxDiscountPrice: Str(FormatPrice(rng.Max)),
	}, Replace)
}
