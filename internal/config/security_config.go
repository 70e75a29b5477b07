// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic        SecurityLevel = iota // No authentication
	SecurityAuthenticated                      // Any verified customer or admin
	SecurityAdmin                              // Admin claim required
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityAuthenticated:
		return "authenticated"
	}
	return "admin"
}

// EndpointSecurityConfig maps "METHOD route-template" keys for HTTP and full
// method names for gRPC to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational - Public
	"GET /health":                  SecurityPublic,
	"GET /metrics":                 SecurityPublic,
	"GET /media/{publicId:.+}":     SecurityPublic,
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// Inventory - Authenticated
	"GET /api/v1/inventory":      SecurityAuthenticated,
	"GET /api/v1/inventory/{id}": SecurityAuthenticated,

	// Inventory - Admin
	"POST /api/v1/inventory":                 SecurityAdmin,
	"POST /api/v1/inventory/bootstrap":       SecurityAdmin,
	"PUT /api/v1/inventory/{id}":             SecurityAdmin,
	"DELETE /api/v1/inventory/{id}":          SecurityAdmin,
	"POST /api/v1/inventory/{id}/operations": SecurityAdmin,

	// Bookings - Authenticated
	"POST /api/v1/bookings":                    SecurityAuthenticated,
	"GET /api/v1/bookings":                     SecurityAuthenticated,
	"GET /api/v1/bookings/{id}":                SecurityAuthenticated,
	"POST /api/v1/bookings/{id}/payment-proof": SecurityAuthenticated,
	"POST /api/v1/bookings/{id}/paypal":        SecurityAuthenticated,

	// Bookings - Admin
	"POST /api/v1/bookings/{id}/status":                        SecurityAdmin,
	"POST /api/v1/bookings/{id}/payments":                      SecurityAdmin,
	"POST /api/v1/bookings/{id}/refunds":                       SecurityAdmin,
	"DELETE /api/v1/bookings/{id}/payment-proof/{publicId:.+}": SecurityAdmin,

	// Damage reports - Admin
	"GET /api/v1/damage-reports":              SecurityAdmin,
	"POST /api/v1/damage-reports":             SecurityAdmin,
	"GET /api/v1/damage-reports/{id}":         SecurityAdmin,
	"POST /api/v1/damage-reports/{id}/status": SecurityAdmin,
	"POST /api/v1/damage-reports/{id}/photos": SecurityAdmin,
	"DELETE /api/v1/damage-reports/{id}":      SecurityAdmin,
}

// GetSecurityLevel returns the security level for a route key or gRPC method
func GetSecurityLevel(key string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[key]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}

// RouteKey builds the EndpointSecurityConfig key for an HTTP route
func RouteKey(method, template string) string {
	return method + " " + template
}
