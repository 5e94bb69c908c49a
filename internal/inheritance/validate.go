package inheritance

import (
	"net/url"
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
)

// DefaultSettings son los defaults de un partner nuevo.
func DefaultSettings() domain.PartnerSettings {
	return domain.PartnerSettings{
		Sign:    true,
		Encrypt: true,
		MDNMode: domain.MDNAsync,
		Active:  true,
	}
}

// ValidateNew exige name, as2_id y url en un alta.
func ValidateNew(in domain.PartnerPatch) error {
	details := map[string][]string{}
	for field, v := range map[string]*string{domain.FieldName: in.Name, domain.FieldAS2ID: in.AS2ID, domain.FieldURL: in.URL} {
		if v == nil || strings.TrimSpace(*v) == "" {
			details[field] = append(details[field], "is required")
		}
	}
	if len(details) > 0 {
		return as2err.Validation("Partner name, AS2 ID and URL are required", "", details)
	}
	return validatePatch(in)
}

// validatePatch valida formato de los campos presentes.
func validatePatch(p domain.PartnerPatch) error {
	details := map[string][]string{}
	if p.URL != nil {
		if u, err := url.Parse(*p.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			details[domain.FieldURL] = append(details[domain.FieldURL], "must be an absolute http(s) URL")
		}
	}
	if p.MDNMode != nil && !p.MDNMode.Valid() {
		details[domain.FieldMDNMode] = append(details[domain.FieldMDNMode], "must be async or sync")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		details[domain.FieldName] = append(details[domain.FieldName], "must not be empty")
	}
	if p.AS2ID != nil && strings.TrimSpace(*p.AS2ID) == "" {
		details[domain.FieldAS2ID] = append(details[domain.FieldAS2ID], "must not be empty")
	}
	if len(details) > 0 {
		return as2err.Validation("Invalid partner settings", "", details)
	}
	return nil
}

// ValidatePatch expone la validación de formato para los módulos de partners.
func ValidatePatch(p domain.PartnerPatch) error { return validatePatch(p) }
