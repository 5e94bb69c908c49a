package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Nombres de campo tal como viajan en el wire y en los mapas de override.
const (
	FieldName     = "name"
	FieldAS2ID    = "as2_id"
	FieldURL      = "url"
	FieldSign     = "sign"
	FieldEncrypt  = "encrypt"
	FieldCompress = "compress"
	FieldMDNMode  = "mdn_mode"
	FieldActive   = "active"
)

// PartnerFields lista los campos configurables en orden estable.
var PartnerFields = []string{FieldName, FieldAS2ID, FieldURL, FieldSign, FieldEncrypt, FieldCompress, FieldMDNMode, FieldActive}

// PartnerSettings son los campos configurables de un partner.
type PartnerSettings struct {
	Name     string
	AS2ID    string
	URL      string
	Sign     bool
	Encrypt  bool
	Compress bool
	MDNMode  MDNMode
	Active   bool
}

// PartnerPatch es un cambio parcial: solo los campos no-nil se aplican.
// Es también el mapa de overrides de una herencia.
type PartnerPatch struct {
	Name     *string  `json:"name,omitempty"`
	AS2ID    *string  `json:"as2_id,omitempty"`
	URL      *string  `json:"url,omitempty"`
	Sign     *bool    `json:"sign,omitempty"`
	Encrypt  *bool    `json:"encrypt,omitempty"`
	Compress *bool    `json:"compress,omitempty"`
	MDNMode  *MDNMode `json:"mdn_mode,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}

// Ptr devuelve un puntero a v. Útil para armar patches.
func Ptr[T any](v T) *T { return &v }

// Fields devuelve los nombres de los campos presentes, en orden estable.
func (p PartnerPatch) Fields() []string {
	out := make([]string, 0, len(PartnerFields))
	for _, f := range PartnerFields {
		if p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Has indica si el campo está presente en el patch.
func (p PartnerPatch) Has(field string) bool {
	switch field {
	case FieldName:
		return p.Name != nil
	case FieldAS2ID:
		return p.AS2ID != nil
	case FieldURL:
		return p.URL != nil
	case FieldSign:
		return p.Sign != nil
	case FieldEncrypt:
		return p.Encrypt != nil
	case FieldCompress:
		return p.Compress != nil
	case FieldMDNMode:
		return p.MDNMode != nil
	case FieldActive:
		return p.Active != nil
	}
	return false
}

func (p PartnerPatch) IsEmpty() bool { return len(p.Fields()) == 0 }

// Apply devuelve s con los campos presentes de p aplicados.
func (p PartnerPatch) Apply(s PartnerSettings) PartnerSettings {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.AS2ID != nil {
		s.AS2ID = *p.AS2ID
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.Sign != nil {
		s.Sign = *p.Sign
	}
	if p.Encrypt != nil {
		s.Encrypt = *p.Encrypt
	}
	if p.Compress != nil {
		s.Compress = *p.Compress
	}
	if p.MDNMode != nil {
		s.MDNMode = *p.MDNMode
	}
	if p.Active != nil {
		s.Active = *p.Active
	}
	return s
}

// Without devuelve una copia de p sin los campos indicados.
func (p PartnerPatch) Without(fields ...string) PartnerPatch {
	for _, f := range fields {
		switch f {
		case FieldName:
			p.Name = nil
		case FieldAS2ID:
			p.AS2ID = nil
		case FieldURL:
			p.URL = nil
		case FieldSign:
			p.Sign = nil
		case FieldEncrypt:
			p.Encrypt = nil
		case FieldCompress:
			p.Compress = nil
		case FieldMDNMode:
			p.MDNMode = nil
		case FieldActive:
			p.Active = nil
		}
	}
	return p
}

// Merge devuelve p con los campos presentes en o encima.
func (p PartnerPatch) Merge(o PartnerPatch) PartnerPatch {
	if o.Name != nil {
		p.Name = o.Name
	}
	if o.AS2ID != nil {
		p.AS2ID = o.AS2ID
	}
	if o.URL != nil {
		p.URL = o.URL
	}
	if o.Sign != nil {
		p.Sign = o.Sign
	}
	if o.Encrypt != nil {
		p.Encrypt = o.Encrypt
	}
	if o.Compress != nil {
		p.Compress = o.Compress
	}
	if o.MDNMode != nil {
		p.MDNMode = o.MDNMode
	}
	if o.Active != nil {
		p.Active = o.Active
	}
	return p
}

// Clone copia los punteros para que el resultado no comparta memoria con p.
func (p PartnerPatch) Clone() PartnerPatch {
	var c PartnerPatch
	if p.Name != nil {
		c.Name = Ptr(*p.Name)
	}
	if p.AS2ID != nil {
		c.AS2ID = Ptr(*p.AS2ID)
	}
	if p.URL != nil {
		c.URL = Ptr(*p.URL)
	}
	if p.Sign != nil {
		c.Sign = Ptr(*p.Sign)
	}
	if p.Encrypt != nil {
		c.Encrypt = Ptr(*p.Encrypt)
	}
	if p.Compress != nil {
		c.Compress = Ptr(*p.Compress)
	}
	if p.MDNMode != nil {
		c.MDNMode = Ptr(*p.MDNMode)
	}
	if p.Active != nil {
		c.Active = Ptr(*p.Active)
	}
	return c
}

// SettingsPatch arma un patch completo desde s.
func SettingsPatch(s PartnerSettings) PartnerPatch {
	return PartnerPatch{
		Name:     Ptr(s.Name),
		AS2ID:    Ptr(s.AS2ID),
		URL:      Ptr(s.URL),
		Sign:     Ptr(s.Sign),
		Encrypt:  Ptr(s.Encrypt),
		Compress: Ptr(s.Compress),
		MDNMode:  Ptr(s.MDNMode),
		Active:   Ptr(s.Active),
	}
}

// FlexString acepta ids que el servidor a veces manda como número.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("domain: id must be string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
