package domain

// MaxLineQuantity caps the units held on a single cart line.
const MaxLineQuantity = 9999

// CartLineItem is one product and the quantity the shopper intends to buy.
type CartLineItem struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	UnitPrice Money    `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
	Images    []string `json:"images,omitempty"`
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i CartLineItem) LineTotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}

// CartSnapshot is an ordered collection of line items. Snapshots are values:
// every mutation returns a new snapshot and leaves the receiver untouched.
type CartSnapshot struct {
	Items []CartLineItem `json:"items"`
}

// Subtotal sums UnitPrice*Quantity over the current items. It is never cached.
func (s CartSnapshot) Subtotal() Money {
	var total Money
	for _, item := range s.Items {
		total = total.Plus(item.LineTotal())
	}
	return total
}

// TotalQuantity is the number of units across all lines.
func (s CartSnapshot) TotalQuantity() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line for productID, if present.
func (s CartSnapshot) Find(productID string) (CartLineItem, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartLineItem{}, false
}

// WithProduct adds quantity units of product, merging into an existing line.
// A quantity below 1 is treated as 1; a line never exceeds MaxLineQuantity.
func (s CartSnapshot) WithProduct(p Product, quantity int) CartSnapshot {
	if quantity < 1 {
		quantity = 1
	}
	quantity = capQuantity(quantity)
	items := s.copyItems()
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity = capQuantity(items[i].Quantity + quantity)
			return CartSnapshot{Items: items}
		}
	}
	items = append(items, CartLineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Images:    append([]string(nil), p.Images...),
	})
	return CartSnapshot{Items: items}
}

// WithoutProduct drops the line for productID. Absent ids are a no-op.
func (s CartSnapshot) WithoutProduct(productID string) CartSnapshot {
	items := make([]CartLineItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	return CartSnapshot{Items: items}
}

// WithQuantity sets the exact quantity for productID; below 1 removes the line
// and above MaxLineQuantity is capped.
func (s CartSnapshot) WithQuantity(productID string, quantity int) CartSnapshot {
	if quantity < 1 {
		return s.WithoutProduct(productID)
	}
	items := s.copyItems()
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = capQuantity(quantity)
		}
	}
	return CartSnapshot{Items: items}
}

// WithoutOrdered takes the ordered units off the cart. Units added after the
// order was taken stay in the cart.
func (s CartSnapshot) WithoutOrdered(lines []OrderLine) CartSnapshot {
	ordered := make(map[string]int, len(lines))
	for _, l := range lines {
		ordered[l.ProductID] += l.Quantity
	}
	items := make([]CartLineItem, 0, len(s.Items))
	for _, item := range s.Items {
		item.Quantity -= ordered[item.ProductID]
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	return CartSnapshot{Items: items}
}

func (s CartSnapshot) Cleared() CartSnapshot {
	return CartSnapshot{Items: []CartLineItem{}}
}

// Sanitized drops lines that violate the line invariants, e.g. after loading
// a hand-edited or partially written persisted snapshot.
func (s CartSnapshot) Sanitized() CartSnapshot {
	items := make([]CartLineItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice < 0 {
			continue
		}
		item.Quantity = capQuantity(item.Quantity)
		items = append(items, item)
	}
	return CartSnapshot{Items: items}
}

// capQuantity also catches a merge that wrapped past the int range.
func capQuantity(q int) int {
	if q > MaxLineQuantity || q < 0 {
		return MaxLineQuantity
	}
	return q
}

func (s CartSnapshot) copyItems() []CartLineItem {
	items := make([]CartLineItem, len(s.Items), len(s.Items)+1)
	copy(items, s.Items)
	return items
}
