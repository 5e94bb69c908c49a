package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acme() PartnerSettings {
	return PartnerSettings{Name: "ACME", AS2ID: "ACME-1", URL: "https://a.example/as2", Sign: true, Encrypt: true, MDNMode: MDNAsync, Active: true}
}

func TestConstructorsEnforceOwnerPayload(t *testing.T) {
	_, err := NewTenantPartner("p1", "", acme())
	require.Error(t, err)

	_, err = NewInheritedPartner("p2", "", "1", acme())
	require.Error(t, err)
	_, err = NewInheritedPartner("p2", "m1", "", acme())
	require.Error(t, err)

	p, err := NewInheritedPartner("p2", "m1", "7", acme())
	require.NoError(t, err)
	assert.Equal(t, KindInherited, p.Kind())
	assert.Equal(t, "7", p.TenantID())
	mid, ok := p.MasterID()
	assert.True(t, ok)
	assert.Equal(t, "m1", mid)
	assert.True(t, p.CanOverrideSettings())

	m := NewMasterPartner("m1", "1", acme())
	assert.True(t, m.IsMaster())
	assert.Equal(t, "", m.TenantID())
	_, ok = m.MasterID()
	assert.False(t, ok)
}

func TestUnmarshalPrefersConfiguration(t *testing.T) {
	raw := `{"id":"prt_master_001","name":"ACME","as2_id":"ACME-1","url":"https://a.example/as2",
		"type":"master","sign":false,"mdn_mode":"async","configuration":{"sign":true,"compress":true,"mdn_mode":"sync"}}`
	var p Partner
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, KindMaster, p.Kind())
	assert.True(t, p.Sign, "configuration gana sobre el campo plano")
	assert.True(t, p.Compress)
	assert.True(t, p.Encrypt, "default cuando no viene")
	assert.True(t, p.Active)
	assert.Equal(t, MDNSync, p.MDNMode)
}

func TestUnmarshalDefaultsAndNumericIDs(t *testing.T) {
	raw := `{"id":12,"name":"Cardinal Health","as2_id":"CARDINAL","url":"https://as2.cardinal.com/receive","tenant_id":1}`
	var p Partner
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "12", p.ID)
	assert.Equal(t, KindTenant, p.Kind())
	assert.Equal(t, "1", p.TenantID())
	assert.Equal(t, MDNAsync, p.MDNMode)
	assert.False(t, p.Compress)
}

func TestUnmarshalRejectsBrokenInherited(t *testing.T) {
	var p Partner
	err := json.Unmarshal([]byte(`{"id":"x","type":"inherited","tenant_id":"1"}`), &p)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"x","type":"weird","tenant_id":"1"}`), &p)
	require.Error(t, err)
}

func TestMarshalKeepsOwner(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := NewInheritedPartner("prt_inherited_1", "prt_master_1", "2", acme())
	require.NoError(t, err)
	p.CreatedAt = now

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "inherited", doc["type"])
	assert.Equal(t, "prt_master_1", doc["master_partner_id"])
	assert.Equal(t, "2", doc["tenant_id"])

	var back Partner
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p.Owner(), back.Owner())
	assert.Equal(t, p.PartnerSettings, back.PartnerSettings)
	assert.True(t, now.Equal(back.CreatedAt))
}

func TestPatchOperations(t *testing.T) {
	patch := PartnerPatch{URL: Ptr("https://x"), Active: Ptr(false)}
	assert.Equal(t, []string{FieldURL, FieldActive}, patch.Fields())
	assert.True(t, patch.Has(FieldURL))
	assert.False(t, patch.Has(FieldName))
	assert.False(t, patch.IsEmpty())
	assert.True(t, PartnerPatch{}.IsEmpty())

	s := patch.Apply(acme())
	assert.Equal(t, "https://x", s.URL)
	assert.False(t, s.Active)
	assert.Equal(t, "ACME", s.Name)

	rest := patch.Without(FieldURL)
	assert.Equal(t, []string{FieldActive}, rest.Fields())
	assert.NotNil(t, patch.URL, "Without no muta el original")

	merged := patch.Merge(PartnerPatch{URL: Ptr("https://y"), Name: Ptr("N")})
	assert.Equal(t, "https://y", *merged.URL)
	assert.Equal(t, "N", *merged.Name)
	assert.False(t, *merged.Active)

	c := patch.Clone()
	*c.URL = "changed"
	assert.Equal(t, "https://x", *patch.URL)

	assert.Len(t, SettingsPatch(acme()).Fields(), len(PartnerFields))
}

func TestPartnerFilter(t *testing.T) {
	p, _ := NewTenantPartner("p1", "1", acme())
	assert.True(t, PartnerFilter{Search: "acme-"}.Matches(p))
	assert.True(t, PartnerFilter{Search: "ac"}.Matches(p))
	assert.False(t, PartnerFilter{Search: "zzz"}.Matches(p))
	assert.False(t, PartnerFilter{Type: KindInherited}.Matches(p))
	assert.False(t, PartnerFilter{Active: Ptr(false)}.Matches(p))

	f := ParsePartnerFilter(PartnerFilter{Type: KindTenant, Active: Ptr(true), Search: "ac"}.Query())
	assert.Equal(t, KindTenant, f.Type)
	require.NotNil(t, f.Active)
	assert.True(t, *f.Active)
	assert.Equal(t, "ac", f.Search)
}
