package view

import "github.com/adesaini/sweetshop-client/internal/model"

// Action is a user-invocable operation on a single sweet.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionRestock  Action = "restock"
	ActionPurchase Action = "purchase"
)

// AllowedActions is the single place that maps a session role to the
// controls a renderer may show for an item. Admins manage inventory;
// everyone else purchases, and purchase disappears at zero stock.
func AllowedActions(role model.Role, s model.Sweet) []Action {
	if role.IsAdmin() {
		return []Action{ActionEdit, ActionDelete, ActionRestock}
	}
	if s.Quantity == 0 {
		return nil
	}
	return []Action{ActionPurchase}
}
