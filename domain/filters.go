package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PartnerFilter filtra un listado de partners después de resolver visibilidad.
type PartnerFilter struct {
	Type   PartnerKind
	Active *bool
	// Search es substring case-insensitive sobre name y as2_id.
	Search string
}

// Matches aplica el filtro a un partner.
func (f PartnerFilter) Matches(p Partner) bool {
	if f.Type != "" && p.Kind() != f.Type {
		return false
	}
	if f.Active != nil && p.Active != *f.Active {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.AS2ID), q) {
			return false
		}
	}
	return true
}

// Query codifica el filtro como query string.
func (f PartnerFilter) Query() url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// ParsePartnerFilter es la inversa de Query.
func ParsePartnerFilter(q url.Values) PartnerFilter {
	f := PartnerFilter{Type: PartnerKind(q.Get("type")), Search: q.Get("search")}
	if v := q.Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Active = &b
		}
	}
	return f
}

// MessageFilter filtra Messages.List.
type MessageFilter struct {
	PartnerID string
	Status    MessageStatus
	Direction Direction
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

const DefaultMessageLimit = 20

func (f MessageFilter) Query() url.Values {
	q := url.Values{}
	if f.PartnerID != "" {
		q.Set("partnerId", f.PartnerID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Direction != "" {
		q.Set("direction", string(f.Direction))
	}
	if f.From != nil {
		q.Set("dateFrom", f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		q.Set("dateTo", f.To.Format(time.RFC3339))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(max(f.Offset, 0)))
	return q
}

func ParseMessageFilter(q url.Values) MessageFilter {
	f := MessageFilter{
		PartnerID: q.Get("partnerId"),
		Status:    MessageStatus(q.Get("status")),
		Direction: Direction(q.Get("direction")),
	}
	if t, err := time.Parse(time.RFC3339, q.Get("dateFrom")); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("dateTo")); err == nil {
		f.To = &t
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if f.Limit <= 0 {
		f.Limit = DefaultMessageLimit
	}
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

// Matches aplica todo menos la paginación.
func (f MessageFilter) Matches(m Message) bool {
	if f.PartnerID != "" && m.PartnerID != f.PartnerID {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.Direction != "" && m.Direction != f.Direction {
		return false
	}
	if m.CreatedAt != nil {
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			return false
		}
	}
	return true
}

// CertificateFilter filtra Certificates.List.
type CertificateFilter struct {
	Type           CertificateType
	Active         *bool
	ExpiringWithin int // días
	PartnerID      string
}

func (f CertificateFilter) Query() url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Active != nil {
		if *f.Active {
			q.Set("active", "1")
		} else {
			q.Set("active", "0")
		}
	}
	if f.ExpiringWithin > 0 {
		q.Set("expiringWithin", strconv.Itoa(f.ExpiringWithin))
	}
	if f.PartnerID != "" {
		q.Set("partnerId", f.PartnerID)
	}
	return q
}

func ParseCertificateFilter(q url.Values) CertificateFilter {
	f := CertificateFilter{Type: CertificateType(q.Get("type")), PartnerID: q.Get("partnerId")}
	switch q.Get("active") {
	case "1", "true":
		f.Active = Ptr(true)
	case "0", "false":
		f.Active = Ptr(false)
	}
	f.ExpiringWithin, _ = strconv.Atoi(q.Get("expiringWithin"))
	return f
}

// Matches aplica el filtro respecto de now.
func (f CertificateFilter) Matches(c Certificate, now time.Time) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Active != nil && c.Active != *f.Active {
		return false
	}
	if f.PartnerID != "" && c.PartnerID != f.PartnerID {
		return false
	}
	if f.ExpiringWithin > 0 && !c.IsExpiringSoon(now, f.ExpiringWithin) {
		return false
	}
	return true
}
