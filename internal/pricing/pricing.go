// Package pricing computes unit and line prices for a customized product
// selection. It is pure: no storage, no clock, no globals. Callers may
// recompute after every mutation; results depend only on the inputs.
package pricing

import (
	"strings"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

// DefaultDescription is rendered for a selection with no SKU and no options.
// Downstream display and storage treat an empty string specially, so an empty
// selection never renders to "".
const DefaultDescription = "Default"

// Selection is the client-side choice state for one product: at most one SKU
// (multi mode) and, per modifier group, the chosen option ids in the order
// they were picked. Pick order matters: it drives FIFO eviction in full
// multi-select groups.
type Selection struct {
	SKUID     string
	Modifiers map[string][]string
	Quantity  int
}

// NewSelection returns the initial state for a product: empty choice per
// group, quantity 1, and in multi mode the first SKU still on sale.
func NewSelection(p *domain.Product) Selection {
	sel := Selection{
		Modifiers: make(map[string][]string, len(p.ModifierGroups)),
		Quantity:  1,
	}
	for _, g := range p.ModifierGroups {
		sel.Modifiers[g.ID] = nil
	}
	if p.SKUMode == domain.SKUModeMulti {
		for _, sku := range p.SKUs {
			if !sku.SoldOut {
				sel.SKUID = sku.ID
				break
			}
		}
	}
	return sel
}

func (s Selection) clone() Selection {
	next := Selection{
		SKUID:     s.SKUID,
		Modifiers: make(map[string][]string, len(s.Modifiers)),
		Quantity:  s.Quantity,
	}
	for id, opts := range s.Modifiers {
		next.Modifiers[id] = append([]string(nil), opts...)
	}
	return next
}

func findSKU(p *domain.Product, skuID string) *domain.SKU {
	for i := range p.SKUs {
		if p.SKUs[i].ID == skuID {
			return &p.SKUs[i]
		}
	}
	return nil
}

func findGroup(p *domain.Product, groupID string) *domain.ModifierGroup {
	for i := range p.ModifierGroups {
		if p.ModifierGroups[i].ID == groupID {
			return &p.ModifierGroups[i]
		}
	}
	return nil
}

func findOption(g *domain.ModifierGroup, optionID string) *domain.ModifierOption {
	for i := range g.Options {
		if g.Options[i].ID == optionID {
			return &g.Options[i]
		}
	}
	return nil
}

// ToggleSKU switches the selected SKU. Unknown or sold-out SKUs are rejected:
// the returned bool is false and the selection is returned unchanged.
// Switching SKUs never touches modifier choices.
func ToggleSKU(p *domain.Product, sel Selection, skuID string) (Selection, bool) {
	sku := findSKU(p, skuID)
	if sku == nil || sku.SoldOut {
		return sel, false
	}
	if sel.SKUID == skuID {
		return sel, true
	}
	next := sel.clone()
	next.SKUID = skuID
	return next, true
}

// ToggleOption flips one option in one group:
//   - already selected: deselect
//   - max == 1: replace the whole group choice
//   - below max: append
//   - group full: evict the oldest pick and append (FIFO)
//
// Unknown groups/options and sold-out options are rejected with a false bool
// and an unchanged selection.
func ToggleOption(p *domain.Product, sel Selection, groupID, optionID string) (Selection, bool) {
	group := findGroup(p, groupID)
	if group == nil {
		return sel, false
	}
	option := findOption(group, optionID)
	if option == nil || option.SoldOut {
		return sel, false
	}

	current := sel.Modifiers[groupID]
	selectedAt := -1
	for i, id := range current {
		if id == optionID {
			selectedAt = i
			break
		}
	}

	next := sel.clone()
	switch {
	case selectedAt >= 0:
		next.Modifiers[groupID] = append(current[:selectedAt:selectedAt], current[selectedAt+1:]...)
	case group.Rules.Max == 1:
		next.Modifiers[groupID] = []string{optionID}
	case len(current) < group.Rules.Max:
		next.Modifiers[groupID] = append(append([]string(nil), current...), optionID)
	default:
		evicted := current
		if len(evicted) > 0 {
			evicted = evicted[1:]
		}
		next.Modifiers[groupID] = append(append([]string(nil), evicted...), optionID)
	}
	return next, true
}

// SetQuantity clamps to a minimum of 1. No upper bound here.
func SetQuantity(sel Selection, n int) Selection {
	next := sel.clone()
	if n < 1 {
		n = 1
	}
	next.Quantity = n
	return next
}

// Breakdown prices the selection. Base is the chosen SKU price in multi mode
// (product base price otherwise), modifiers add on top, total scales by
// quantity.
func Breakdown(p *domain.Product, sel Selection) domain.PriceBreakdown {
	base := p.BasePrice
	if p.SKUMode == domain.SKUModeMulti && sel.SKUID != "" {
		if sku := findSKU(p, sel.SKUID); sku != nil {
			base = sku.Price
		}
	}

	var modifiersTotal float64
	for _, g := range p.ModifierGroups {
		for _, optID := range sel.Modifiers[g.ID] {
			if opt := findOption(&g, optID); opt != nil {
				modifiersTotal += opt.Price
			}
		}
	}

	quantity := sel.Quantity
	if quantity < 1 {
		quantity = 1
	}

	unitTotal := base + modifiersTotal
	return domain.PriceBreakdown{
		Base:           base,
		ModifiersTotal: modifiersTotal,
		UnitTotal:      unitTotal,
		Total:          unitTotal * float64(quantity),
	}
}

// Validate reports whether the selection can be submitted, plus a per-group
// map of whether the group's min is satisfied. Invalid when multi mode has no
// SKU chosen, or any group's selected count falls outside [min, max].
func Validate(p *domain.Product, sel Selection) (bool, map[string]bool) {
	groupValidation := make(map[string]bool, len(p.ModifierGroups))
	valid := true
	for _, g := range p.ModifierGroups {
		count := len(sel.Modifiers[g.ID])
		groupValidation[g.ID] = count >= g.Rules.Min
		if count < g.Rules.Min || count > g.Rules.Max {
			valid = false
		}
	}
	if p.SKUMode == domain.SKUModeMulti && sel.SKUID == "" {
		valid = false
	}
	return valid, groupValidation
}

// Describe renders the selection for display and order storage: SKU name
// first, then chosen option names per group in declaration order. Options in
// a group join with ", ", groups join with " / ". An empty selection renders
// DefaultDescription.
func Describe(p *domain.Product, sel Selection) string {
	var parts []string

	if p.SKUMode == domain.SKUModeMulti && sel.SKUID != "" {
		if sku := findSKU(p, sel.SKUID); sku != nil {
			parts = append(parts, sku.Name)
		}
	}

	for _, g := range p.ModifierGroups {
		var names []string
		for _, optID := range sel.Modifiers[g.ID] {
			if opt := findOption(&g, optID); opt != nil {
				names = append(names, opt.Name)
			}
		}
		if len(names) > 0 {
			parts = append(parts, strings.Join(names, ", "))
		}
	}

	if len(parts) == 0 {
		return DefaultDescription
	}
	return strings.Join(parts, " / ")
}
