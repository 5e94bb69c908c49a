package transport

import "strings"

// Header names del contrato HTTP.
const (
	HeaderTenantID       = "X-Tenant-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRetryAfter     = "Retry-After"
)

// tenantFamilies son las familias de recurso con scope de tenant. accounts,
// tenants y billing (y cualquier otra) nunca llevan el header.
var tenantFamilies = map[string]struct{}{
	"partners":                {},
	"partnerships":            {},
	"messages":                {},
	"certificates":            {},
	"webhook-endpoints":       {},
	"webhook-endpoints-stats": {},
	"api-keys":                {},
}

// Family devuelve el primer segmento del path: "/partners/prt_1" => "partners".
func Family(path string) string {
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(p)
}

// RequiresTenantHeader indica si un request a path debe llevar X-Tenant-ID
// cuando hay un tenant en scope.
func RequiresTenantHeader(path string) bool {
	_, ok := tenantFamilies[Family(path)]
	return ok
}
