// Package model defines domain types shared by the CLI and the web front end.
package model

// Role classifies a session's capability level. The backend enforces it;
// the client only decides which controls to show.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// IsAdmin reports whether the role carries inventory-management rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Sweet is a single catalog item. The backend owns the record; the client
// holds an ephemeral copy between fetches.
type Sweet struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// SweetInput is the mutable part of a sweet, sent on create and update.
type SweetInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Session is the authenticated identity plus the bearer token attached to
// every subsequent request.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}

// SearchFilter narrows a catalog search. Zero-value fields are omitted from
// the outgoing query, never sent as empty constraints.
type SearchFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// IsEmpty reports whether the filter constrains nothing.
func (f SearchFilter) IsEmpty() bool {
	return f.Name == "" && f.Category == "" && f.MinPrice == nil && f.MaxPrice == nil
}

// SortKey selects the field the visible list is ordered by.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByPrice    SortKey = "price"
	SortByQuantity SortKey = "quantity"
	SortByCategory SortKey = "category"
)

// ValidSortKey reports whether k names a sortable field.
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortByName, SortByPrice, SortByQuantity, SortByCategory:
		return true
	}
	return false
}

// SortSpec is a sort key plus direction.
type SortSpec struct {
	Key  SortKey
	Desc bool
}

// DefaultSort is name ascending.
func DefaultSort() SortSpec { return SortSpec{Key: SortByName} }

// ViewMode is a pure rendering choice with no data impact.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ValidViewMode reports whether m names a known rendering mode.
func ValidViewMode(m ViewMode) bool { return m == ViewGrid || m == ViewList }

// Stats are dashboard aggregates computed over the current catalog copy.
type Stats struct {
	TotalSweets     int
	LowStock        int
	TotalValue      float64
	PopularCategory string
}
