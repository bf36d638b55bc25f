package facets

import (
	"sync"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// View is the displayed subset of the base set with its totals.
type View struct {
	Items        []models.ProductSummary
	TotalResults int
	TotalPages   int
}

// Engine holds the frozen base set of the current page together with the facet
// groups, price bounds and slider range derived from it.
type Engine struct {
	mu     sync.RWMutex
	base   []models.ProductSummary
	groups models.FacetGroups
	bounds models.PriceRange
	rng    models.PriceRange
}

// NewEngine returns an engine with an empty base set.
func NewEngine() *Engine {
	return &Engine{groups: Groups(nil)}
}

// SetBase replaces the base set and recomputes groups and bounds. The slider
// range resets to the bounds unless discount is enabled with an explicit range,
// in which case that range is kept.
func (e *Engine) SetBase(base []models.ProductSummary, discount *models.DiscountFilter) {
	frozen := append([]models.ProductSummary(nil), base...)
	groups := Groups(frozen)
	bounds := Bounds(frozen)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = frozen
	e.groups = groups
	e.bounds = bounds
	if discount != nil && discount.Enabled && discount.HasRange {
		e.rng = models.PriceRange{Min: discount.Min, Max: discount.Max}
	} else {
		e.rng = bounds
	}
}

// SetRange sets the slider range.
func (e *Engine) SetRange(r models.PriceRange) {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	e.mu.Lock()
	e.rng = r
	e.mu.Unlock()
}

// Range returns the current slider range.
func (e *Engine) Range() models.PriceRange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rng
}

// Bounds returns the price bounds of the base set.
func (e *Engine) Bounds() models.PriceRange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bounds
}

// Groups returns the facet groups of the base set. They change only with SetBase.
func (e *Engine) Groups() models.FacetGroups {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.groups
}

// View filters the base set by sel and computes the totals:
//   - an enabled discount filter is client-only, so the displayed subset is
//     always counted, even when the range excludes nothing;
//   - facet selections are also sent to the server, whose total already counts
//     them, so serverTotal is kept unless the base set predates the selection
//     and the facets drop items from it.
func (e *Engine) View(sel Selection, pageSize, serverTotal int) View {
	e.mu.RLock()
	base := e.base
	e.mu.RUnlock()

	items := Filter(base, sel)
	total := serverTotal
	if sel.DiscountEnabled || len(items) != len(base) {
		total = len(items)
	}
	return View{
		Items:        items,
		TotalResults: total,
		TotalPages:   totalPages(total, pageSize),
	}
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
