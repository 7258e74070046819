package store

import (
	"encoding/json"
	"slices"
	"sort"
	"time"
)

type SessionItemType string

const (
	SessionItemProduct SessionItemType = "product"
	SessionItemService SessionItemType = "service"
)

// TreatmentSessionItem is a snapshot of one catalog line inside a session.
type TreatmentSessionItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductType SessionItemType `json:"productType"`
	Quantity    int             `json:"quantity"`
	Duration    int             `json:"duration,omitempty"`
}

type TreatmentSession struct {
	SessionNumber int                    `json:"sessionNumber"`
	SessionName   string                 `json:"sessionName"`
	Items         []TreatmentSessionItem `json:"items"`
}

// HasProduct reports whether productID is part of the session template.
func (s TreatmentSession) HasProduct(productID string) bool {
	return slices.ContainsFunc(s.Items, func(it TreatmentSessionItem) bool {
		return it.ProductID == productID
	})
}

// TreatmentPackage is the consumption ledger of one purchased treatment unit.
//
// UsedSessionItems is the only primary consumption state. RemainingSessions
// and IsActive are recomputed from it on every mutation, and the legacy
// used-session list is exposed only through UsedSessionNumbers.
type TreatmentPackage struct {
	ID                 string             `json:"id"`
	CustomerID         string             `json:"customerId"`
	TreatmentProductID string             `json:"treatmentProductId"`
	OrderID            string             `json:"orderId"`
	TotalSessions      int                `json:"totalSessions"`
	Sessions           []TreatmentSession `json:"sessions"`
	UsedSessionItems   map[int][]string   `json:"usedSessionItems"`
	RemainingSessions  int                `json:"remainingSessions"`
	IsActive           bool               `json:"isActive"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Session returns the session template with the given 1-based number.
func (p *TreatmentPackage) Session(number int) (TreatmentSession, bool) {
	if number < 1 || number > len(p.Sessions) {
		return TreatmentSession{}, false
	}
	return p.Sessions[number-1], true
}

// IsItemUsed reports whether productID was consumed in the given session.
func (p *TreatmentPackage) IsItemUsed(sessionNumber int, productID string) bool {
	return slices.Contains(p.UsedSessionItems[sessionNumber], productID)
}

// IsSessionFullyUsed reports whether every item of the session template has
// been consumed.
func (p *TreatmentPackage) IsSessionFullyUsed(sessionNumber int) bool {
	s, ok := p.Session(sessionNumber)
	if !ok || len(s.Items) == 0 {
		return false
	}
	return len(p.UsedSessionItems[sessionNumber]) >= len(s.Items)
}

// UsedSessionNumbers lists fully consumed sessions in ascending order.
func (p *TreatmentPackage) UsedSessionNumbers() []int {
	out := []int{}
	for _, s := range p.Sessions {
		if p.IsSessionFullyUsed(s.SessionNumber) {
			out = append(out, s.SessionNumber)
		}
	}
	return out
}

// Recompute derives RemainingSessions from UsedSessionItems.
func (p *TreatmentPackage) Recompute() {
	remaining := p.TotalSessions - len(p.UsedSessionNumbers())
	if remaining < 0 {
		remaining = 0
	}
	p.RemainingSessions = remaining
}

func (p *TreatmentPackage) markUsed(sessionNumber int, productID string) {
	if p.UsedSessionItems == nil {
		p.UsedSessionItems = map[int][]string{}
	}
	used := append(p.UsedSessionItems[sessionNumber], productID)
	sort.Strings(used)
	p.UsedSessionItems[sessionNumber] = used
}

func (p *TreatmentPackage) unmarkUsed(sessionNumber int, productID string) {
	used := slices.DeleteFunc(slices.Clone(p.UsedSessionItems[sessionNumber]), func(id string) bool {
		return id == productID
	})
	if len(used) == 0 {
		delete(p.UsedSessionItems, sessionNumber)
		return
	}
	p.UsedSessionItems[sessionNumber] = used
}

// ConsumeItem records productID as used in the session. It reports false and
// leaves the package untouched when the session is out of range, the product
// is not part of the session template, or the item is already used.
func (p *TreatmentPackage) ConsumeItem(sessionNumber int, productID string) bool {
	s, ok := p.Session(sessionNumber)
	if !ok || !s.HasProduct(productID) || p.IsItemUsed(sessionNumber, productID) {
		return false
	}
	p.markUsed(sessionNumber, productID)
	p.Recompute()
	p.IsActive = p.RemainingSessions > 0
	return true
}

// ReturnItem is the inverse of ConsumeItem. A returned item always
// reactivates the package.
func (p *TreatmentPackage) ReturnItem(sessionNumber int, productID string) bool {
	if !p.IsItemUsed(sessionNumber, productID) {
		return false
	}
	p.unmarkUsed(sessionNumber, productID)
	p.Recompute()
	p.IsActive = true
	return true
}

func (p *TreatmentPackage) Clone() *TreatmentPackage {
	c := *p
	c.Sessions = make([]TreatmentSession, len(p.Sessions))
	for i, s := range p.Sessions {
		s.Items = slices.Clone(s.Items)
		c.Sessions[i] = s
	}
	c.UsedSessionItems = make(map[int][]string, len(p.UsedSessionItems))
	for k, v := range p.UsedSessionItems {
		c.UsedSessionItems[k] = slices.Clone(v)
	}
	return &c
}

type treatmentPackageJSON TreatmentPackage

// MarshalJSON adds the legacy usedSessionNumbers projection.
func (p TreatmentPackage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		treatmentPackageJSON
		UsedSessionNumbers []int `json:"usedSessionNumbers"`
	}{
		treatmentPackageJSON: treatmentPackageJSON(p),
		UsedSessionNumbers:   p.UsedSessionNumbers(),
	})
}
