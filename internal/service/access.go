package service

import (
	"slices"

	"rentdesk-backend/internal/domain"
)

func requireRole(actor domain.Actor, entity, id string, roles ...domain.Role) error {
	if slices.Contains(roles, actor.Role) {
		return nil
	}
	return domain.Forbidden(entity, id, "role "+string(actor.Role)+" cannot perform this action")
}

// vendorOrAdmin resolves the vendor an action is taken for. Vendors always act
// for themselves; admins may act for any vendor.
func vendorOrAdmin(actor domain.Actor, entity, id, vendorID string) (string, error) {
	if vendorID == "" {
		vendorID = actor.UserID
	}
	if actor.IsAdmin() || (actor.Role == domain.RoleVendor && actor.UserID == vendorID) {
		return vendorID, nil
	}
	return "", domain.Forbidden(entity, id, "only the vendor or an admin can do this")
}

func ownsQuotation(actor domain.Actor, q *domain.Quotation) error {
	if q.CustomerID != actor.UserID {
		return domain.Forbidden("quotation", q.ID, "quotation belongs to another customer")
	}
	return nil
}

func canViewQuotation(actor domain.Actor, q *domain.Quotation) bool {
	return actor.IsAdmin() || q.CustomerID == actor.UserID || q.HasVendor(actor.UserID)
}

func canViewOrder(actor domain.Actor, o *domain.RentalOrder) bool {
	return actor.IsAdmin() || o.CustomerID == actor.UserID || o.VendorID == actor.UserID
}

func canViewInvoice(actor domain.Actor, inv *domain.Invoice) bool {
	return actor.IsAdmin() || inv.CustomerID == actor.UserID || inv.VendorID == actor.UserID
}

func managesOrder(actor domain.Actor, o *domain.RentalOrder) error {
	if actor.IsAdmin() || o.VendorID == actor.UserID {
		return nil
	}
	return domain.Forbidden("order", o.ID, "only the order's vendor or an admin can do this")
}
