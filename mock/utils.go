package mock

import (
	"context"
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// Utils son helpers locales; ValidateEDI solo reconoce el sobre ISA de X12.
type Utils struct{}

func (Utils) DetectContentType(content, filename string) string {
	return util.DetectContentType(content, filename)
}

func (Utils) FormatFileSize(bytes int64) string { return util.FormatFileSize(bytes) }

func (Utils) GenerateAS2ID(company string) string { return util.GenerateAS2ID(company) }

func (u Utils) ValidateEDI(_ context.Context, content string) (domain.ValidationResult, error) {
	return u.validateEDI(content), nil
}

func (Utils) validateEDI(content string) domain.ValidationResult {
	if strings.HasPrefix(strings.TrimSpace(content), "ISA") {
		return domain.ValidationResult{Valid: true, Format: "EDI X12", Issues: []any{}, Details: map[string]any{"mock": true}}
	}
	return domain.ValidationResult{Valid: false, Format: "Unknown", Issues: []any{"Invalid EDI format"}, Details: map[string]any{"mock": true}}
}
