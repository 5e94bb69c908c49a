package domain

import "time"

// InheritRequest es el cuerpo de POST accounts/{id}/partners/{id}/inherit.
type InheritRequest struct {
	TenantIDs []string     `json:"tenant_ids"`
	Overrides PartnerPatch `json:"override_settings"`
}

// InheritedTenant describe una proyección creada o actualizada por Inherit.
type InheritedTenant struct {
	TenantID           string `json:"tenant_id"`
	InheritedPartnerID string `json:"inherited_partner_id"`
	InheritanceID      string `json:"inheritance_id"`
}

type InheritResult struct {
	Success        bool              `json:"success"`
	InheritedCount int               `json:"inherited_count"`
	Results        []InheritedTenant `json:"results"`
}

// RemoveInheritanceRequest es el cuerpo del DELETE de herencia.
type RemoveInheritanceRequest struct {
	TenantIDs []string `json:"tenant_ids"`
}

type RemoveInheritanceResult struct {
	Success      bool `json:"success"`
	RemovedCount int  `json:"removed_count"`
}

// Inheritance es la relación viva entre un master y un tenant.
type Inheritance struct {
	ID                 string       `json:"id"`
	MasterPartnerID    string       `json:"master_partner_id"`
	TenantID           string       `json:"tenant_id"`
	InheritedPartnerID string       `json:"inherited_partner_id"`
	Overrides          PartnerPatch `json:"override_settings"`
	Active             bool         `json:"active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type InheritanceStats struct {
	TotalInherited  int `json:"total_inherited"`
	ActiveInherited int `json:"active_inherited"`
}

// InheritanceStatus es la foto de un master y de quién lo hereda.
type InheritanceStatus struct {
	MasterPartner      Partner          `json:"master_partner"`
	InheritedByTenants []Inheritance    `json:"inherited_by_tenants"`
	Stats              InheritanceStats `json:"inheritance_stats"`
}

// TenantIDs devuelve los tenants que heredan el master, en el orden de la relación.
func (s InheritanceStatus) TenantIDs() []string {
	out := make([]string, 0, len(s.InheritedByTenants))
	for _, in := range s.InheritedByTenants {
		out = append(out, in.TenantID)
	}
	return out
}

// MasterPartnerHealth es el rollup de salud de los masters de una cuenta.
type MasterPartnerHealth struct {
	TotalPartners      int       `json:"total_partners"`
	HealthyPartners    int       `json:"healthy_partners"`
	AverageHealthScore float64   `json:"average_health_score"`
	LastCheck          time.Time `json:"last_check"`
}
