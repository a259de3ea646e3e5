// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health": SecurityPublic,

	// Catalogue browsing is open to anonymous visitors
	"products.list":         SecurityPublic,
	"products.get":          SecurityPublic,
	"products.availability": SecurityPublic,
	"products.quote":        SecurityPublic,
	"products.reservations": SecurityPublic,

	// Vendor product management
	"products.mine":    SecurityAccess,
	"products.create":  SecurityAccess,
	"products.update":  SecurityAccess,
	"products.publish": SecurityAccess,

	"quotations.list":        SecurityAccess,
	"quotations.pending":     SecurityAccess,
	"quotations.get":         SecurityAccess,
	"quotations.create":      SecurityAccess,
	"quotations.delete":      SecurityAccess,
	"quotations.addLine":     SecurityAccess,
	"quotations.updateLine":  SecurityAccess,
	"quotations.removeLine":  SecurityAccess,
	"quotations.submit":      SecurityAccess,
	"quotations.cancel":      SecurityAccess,
	"quotations.approve":     SecurityAccess,
	"quotations.reject":      SecurityAccess,
	"orders.list":            SecurityAccess,
	"orders.get":             SecurityAccess,
	"orders.cancel":          SecurityAccess,
	"orders.pickup":          SecurityAccess,
	"orders.complete":        SecurityAccess,
	"orders.invoice":         SecurityAccess,
	"invoices.list":          SecurityAccess,
	"invoices.get":           SecurityAccess,
	"invoices.send":          SecurityAccess,
	"invoices.lateFee":       SecurityAccess,
	"invoices.payments.list": SecurityAccess,
	"invoices.payments.add":  SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
