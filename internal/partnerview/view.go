// Package partnerview resuelve qué partners ve un scope y aplica filtros y
// lookups sobre esa vista. No muta nada y conserva el orden de entrada.
package partnerview

import (
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
)

// Visible devuelve los partners visibles para tenant. Con tenant "" (scope de
// cuenta) solo los master. Con tenant T los propios de T y las proyecciones
// heredadas cuyo dueño es T; los master nunca.
func Visible(all []domain.Partner, tenant string) []domain.Partner {
	out := make([]domain.Partner, 0, len(all))
	for _, p := range all {
		if visibleTo(p, tenant) {
			out = append(out, p)
		}
	}
	return out
}

func visibleTo(p domain.Partner, tenant string) bool {
	if tenant == "" {
		return p.IsMaster()
	}
	switch o := p.Owner().(type) {
	case domain.TenantOwned:
		return o.TenantID == tenant
	case domain.InheritedFrom:
		return o.TenantID == tenant
	}
	return false
}

// Filter aplica f preservando el orden.
func Filter(ps []domain.Partner, f domain.PartnerFilter) []domain.Partner {
	out := make([]domain.Partner, 0, len(ps))
	for _, p := range ps {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// List es Visible + Filter.
func List(all []domain.Partner, tenant string, f domain.PartnerFilter) []domain.Partner {
	return Filter(Visible(all, tenant), f)
}

// FindByID busca por id dentro de la vista de tenant.
func FindByID(all []domain.Partner, tenant, id string) (domain.Partner, error) {
	for _, p := range Visible(all, tenant) {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Partner{}, as2err.NotFound("partner", id)
}

// FindByAS2ID exige match exacto del AS2 id dentro de la vista de tenant.
func FindByAS2ID(all []domain.Partner, tenant, as2ID string) (domain.Partner, error) {
	return MatchAS2ID(Visible(all, tenant), as2ID)
}

// MatchAS2ID busca el AS2 id exacto en ps tal cual, sin pasar por Visible.
func MatchAS2ID(ps []domain.Partner, as2ID string) (domain.Partner, error) {
	for _, p := range ps {
		if p.AS2ID == as2ID {
			return p, nil
		}
	}
	return domain.Partner{}, as2err.NotFound("partner", as2ID).WithMessage("Partner with AS2 ID '" + as2ID + "' not found")
}

// FindByName prueba match exacto case-insensitive y, si no hay, el primer
// substring case-insensitive.
func FindByName(ps []domain.Partner, name string) (domain.Partner, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q != "" {
		for _, p := range ps {
			if strings.ToLower(p.Name) == q {
				return p, nil
			}
		}
		for _, p := range ps {
			if strings.Contains(strings.ToLower(p.Name), q) {
				return p, nil
			}
		}
	}
	return domain.Partner{}, as2err.NotFound("partner", name).WithMessage("Partner with name '" + name + "' not found")
}
