package inheritance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/partnerview"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) (*Engine, *Table) {
	t.Helper()
	tbl := NewTable()
	return New(tbl, WithClock(func() time.Time { return fixedNow })), tbl
}

func acmeInput() domain.PartnerPatch {
	return domain.PartnerPatch{
		Name:  domain.Ptr("ACME"),
		AS2ID: domain.Ptr("ACME-1"),
		URL:   domain.Ptr("https://a.example/as2"),
	}
}

func mustMaster(t *testing.T, e *Engine) domain.Partner {
	t.Helper()
	m, err := e.CreateMaster("1", acmeInput())
	require.NoError(t, err)
	return m
}

func TestCreateMasterAppliesDefaults(t *testing.T) {
	e, _ := newEngine(t)
	m := mustMaster(t, e)
	assert.Equal(t, "prt_master_001", m.ID)
	assert.True(t, m.IsMaster())
	assert.True(t, m.Sign)
	assert.True(t, m.Encrypt)
	assert.False(t, m.Compress)
	assert.True(t, m.Active)
	assert.Equal(t, domain.MDNAsync, m.MDNMode)
	assert.Equal(t, fixedNow, m.CreatedAt)

	_, err := e.CreateMaster("1", domain.PartnerPatch{Name: domain.Ptr("x")})
	require.Error(t, err)
	ae, _ := as2err.As(err)
	assert.Contains(t, ae.Details, domain.FieldAS2ID)
	assert.Contains(t, ae.Details, domain.FieldURL)

	bad := acmeInput()
	bad.MDNMode = domain.Ptr(domain.MDNMode("later"))
	_, err = e.CreateMaster("1", bad)
	assert.True(t, as2err.IsValidation(err))
}

func TestInheritProjectsWithOverride(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)

	res, err := e.Inherit(m.ID, domain.InheritRequest{
		TenantIDs: []string{"T"},
		Overrides: domain.PartnerPatch{URL: domain.Ptr("https://x.example/as2")},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.InheritedCount)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "T", res.Results[0].TenantID)

	list := partnerview.Visible(tbl.Partners(), "T")
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, domain.KindInherited, p.Kind())
	assert.Equal(t, res.Results[0].InheritedPartnerID, p.ID)
	assert.Equal(t, "https://x.example/as2", p.URL)
	assert.Equal(t, m.Name, p.Name)
	assert.Equal(t, m.AS2ID, p.AS2ID)
	assert.Equal(t, m.Sign, p.Sign)
	assert.Equal(t, m.MDNMode, p.MDNMode)
	mid, _ := p.MasterID()
	assert.Equal(t, m.ID, mid)

	// el master sigue viéndose solo en scope de cuenta
	assert.Equal(t, []domain.Partner{m}, partnerview.Visible(tbl.Partners(), ""))
}

func TestOverridesAreStickyAcrossMasterUpdates(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	_, err := e.Inherit(m.ID, domain.InheritRequest{
		TenantIDs: []string{"T"},
		Overrides: domain.PartnerPatch{URL: domain.Ptr("https://x.example/as2")},
	})
	require.NoError(t, err)

	updated, err := e.UpdateMaster(m.ID, domain.PartnerPatch{URL: domain.Ptr("https://y.example/as2"), Name: domain.Ptr("Z")})
	require.NoError(t, err)
	assert.Equal(t, "https://y.example/as2", updated.URL)

	p := partnerview.Visible(tbl.Partners(), "T")[0]
	assert.Equal(t, "https://x.example/as2", p.URL, "override persiste")
	assert.Equal(t, "Z", p.Name, "campo no overrideado se propaga")

	// y siguen pegados en un segundo update
	_, err = e.UpdateMaster(m.ID, domain.PartnerPatch{URL: domain.Ptr("https://w.example/as2")})
	require.NoError(t, err)
	assert.Equal(t, "https://x.example/as2", partnerview.Visible(tbl.Partners(), "T")[0].URL)
}

func TestRemoveInheritanceIsExactAndIdempotent(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	_, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1", "2"}})
	require.NoError(t, err)

	n, err := e.RemoveInheritance(m.ID, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, partnerview.Visible(tbl.Partners(), "1"))
	assert.Len(t, partnerview.Visible(tbl.Partners(), "2"), 1, "otros tenants intactos")
	_, err = e.Master(m.ID)
	require.NoError(t, err, "el master sobrevive")

	n, err = e.RemoveInheritance(m.ID, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = e.RemoveInheritance(m.ID, []string{"99"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEmptyTenantListIsNoop(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)

	res, err := e.Inherit(m.ID, domain.InheritRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.InheritedCount)
	assert.Empty(t, res.Results)
	assert.Empty(t, tbl.Relationships())

	n, err := e.RemoveInheritance(m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDuplicateTenantIDsCollapse(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	res, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1", "1", " 1 ", "2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.InheritedCount)
	assert.Len(t, tbl.Relationships(), 2)
	assert.Len(t, partnerview.Visible(tbl.Partners(), "1"), 1)
}

func TestMissingMasterIsNotFound(t *testing.T) {
	e, tbl := newEngine(t)
	p, err := domain.NewTenantPartner("prt_001", "1", DefaultSettings())
	require.NoError(t, err)
	tbl.PutPartner(p)

	for _, id := range []string{"nope", "prt_001"} {
		_, err = e.Inherit(id, domain.InheritRequest{})
		assert.True(t, as2err.IsNotFound(err), "inherit %s", id)
		_, err = e.RemoveInheritance(id, nil)
		assert.True(t, as2err.IsNotFound(err))
		_, err = e.UpdateMaster(id, domain.PartnerPatch{})
		assert.True(t, as2err.IsNotFound(err))
		_, err = e.Status(id)
		assert.True(t, as2err.IsNotFound(err))
		assert.True(t, as2err.IsNotFound(e.DeleteMaster(id)))
	}
}

func TestStatusTracksLiveRelationships(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)

	steps := []struct {
		inherit []string
		remove  []string
		want    []string
	}{
		{inherit: []string{"1", "2", "3"}, want: []string{"1", "2", "3"}},
		{remove: []string{"2"}, want: []string{"1", "3"}},
		{inherit: []string{"2", "3"}, want: []string{"1", "3", "2"}},
		{remove: []string{"1", "3", "9"}, want: []string{"2"}},
		{remove: []string{"2"}, want: []string{}},
	}
	for i, s := range steps {
		if len(s.inherit) > 0 {
			_, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: s.inherit})
			require.NoError(t, err)
		}
		if len(s.remove) > 0 {
			_, err := e.RemoveInheritance(m.ID, s.remove)
			require.NoError(t, err)
		}
		st, err := e.Status(m.ID)
		require.NoError(t, err)
		assert.Equal(t, s.want, st.TenantIDs(), "paso %d", i)
		assert.Equal(t, len(s.want), st.Stats.TotalInherited, "paso %d", i)
		assert.Equal(t, len(s.want), st.Stats.ActiveInherited, "paso %d", i)
		assert.Len(t, tbl.Relationships(), len(s.want))
	}
}

func TestStatusActiveCountUsesProjectionFlag(t *testing.T) {
	e, _ := newEngine(t)
	m := mustMaster(t, e)
	_, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1"}})
	require.NoError(t, err)
	_, err = e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"2"}, Overrides: domain.PartnerPatch{Active: domain.Ptr(false)}})
	require.NoError(t, err)

	st, err := e.Status(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Stats.TotalInherited)
	assert.Equal(t, 1, st.Stats.ActiveInherited)
	assert.False(t, st.InheritedByTenants[1].Active)
}

func TestDeleteMasterCascades(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	other, err := e.CreateMaster("1", domain.PartnerPatch{Name: domain.Ptr("Other"), AS2ID: domain.Ptr("OTHER"), URL: domain.Ptr("https://o.example")})
	require.NoError(t, err)
	_, err = e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1", "2"}})
	require.NoError(t, err)
	_, err = e.Inherit(other.ID, domain.InheritRequest{TenantIDs: []string{"1"}})
	require.NoError(t, err)

	require.NoError(t, e.DeleteMaster(m.ID))

	for _, p := range tbl.Partners() {
		mid, ok := p.MasterID()
		assert.False(t, ok && mid == m.ID, "proyección huérfana %s", p.ID)
		assert.NotEqual(t, m.ID, p.ID)
	}
	for _, r := range tbl.Relationships() {
		assert.NotEqual(t, m.ID, r.MasterPartnerID)
	}
	assert.Len(t, partnerview.Visible(tbl.Partners(), "1"), 1, "la herencia de otro master queda")
	assert.Empty(t, partnerview.Visible(tbl.Partners(), "2"))
}

// Re-heredar un par existente actualiza en el lugar: reemplaza overrides,
// recalcula desde el master y conserva el id de la proyección.
func TestReinheritUpdatesInPlace(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	first, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1"}, Overrides: domain.PartnerPatch{URL: domain.Ptr("https://x.example")}})
	require.NoError(t, err)

	second, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1"}, Overrides: domain.PartnerPatch{Name: domain.Ptr("Local ACME")}})
	require.NoError(t, err)

	assert.Equal(t, first.Results[0].InheritedPartnerID, second.Results[0].InheritedPartnerID)
	assert.Equal(t, first.Results[0].InheritanceID, second.Results[0].InheritanceID)
	assert.Len(t, tbl.Relationships(), 1)

	list := partnerview.Visible(tbl.Partners(), "1")
	require.Len(t, list, 1)
	assert.Equal(t, "Local ACME", list[0].Name)
	assert.Equal(t, m.URL, list[0].URL, "el override viejo de url se descartó")

	_, err = e.UpdateMaster(m.ID, domain.PartnerPatch{URL: domain.Ptr("https://new.example"), Name: domain.Ptr("ACME 2")})
	require.NoError(t, err)
	list = partnerview.Visible(tbl.Partners(), "1")
	assert.Equal(t, "https://new.example", list[0].URL)
	assert.Equal(t, "Local ACME", list[0].Name)
}

func TestTenantPatchBecomesStickyOverride(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	res, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1"}})
	require.NoError(t, err)
	pid := res.Results[0].InheritedPartnerID

	p, err := e.OverrideProjection(pid, domain.PartnerPatch{MDNMode: domain.Ptr(domain.MDNSync)})
	require.NoError(t, err)
	assert.Equal(t, domain.MDNSync, p.MDNMode)

	_, err = e.UpdateMaster(m.ID, domain.PartnerPatch{MDNMode: domain.Ptr(domain.MDNAsync), Name: domain.Ptr("N")})
	require.NoError(t, err)
	got, _ := tbl.Partner(pid)
	assert.Equal(t, domain.MDNSync, got.MDNMode)
	assert.Equal(t, "N", got.Name)

	rel, ok := e.RelationshipFor(pid)
	require.True(t, ok)
	assert.Equal(t, []string{domain.FieldMDNMode}, rel.Overrides.Fields())

	_, err = e.OverrideProjection(m.ID, domain.PartnerPatch{})
	assert.True(t, as2err.IsNotFound(err), "un master no es una proyección")
}

func TestDetachProjection(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)
	res, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1", "2"}})
	require.NoError(t, err)

	require.NoError(t, e.DetachProjection(res.Results[0].InheritedPartnerID))
	st, err := e.Status(m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, st.TenantIDs())
	assert.Empty(t, partnerview.Visible(tbl.Partners(), "1"))

	assert.True(t, as2err.IsNotFound(e.DetachProjection("missing")))
}

func TestHealthRollup(t *testing.T) {
	e, tbl := newEngine(t)
	h := e.Health()
	assert.Equal(t, 0, h.TotalPartners)
	assert.Zero(t, h.AverageHealthScore)

	m := mustMaster(t, e)
	sick := domain.NewMasterPartner("prt_master_sick", "1", DefaultSettings())
	sick.HealthScore = 40
	tbl.PutPartner(sick)

	h = e.Health()
	assert.Equal(t, 2, h.TotalPartners)
	assert.Equal(t, 1, h.HealthyPartners)
	assert.InDelta(t, (m.HealthScore+40)/2, h.AverageHealthScore, 0.001)
	assert.Equal(t, fixedNow, h.LastCheck)
}

func TestAcmeScenario(t *testing.T) {
	e, tbl := newEngine(t)
	m := mustMaster(t, e)

	_, err := e.Inherit(m.ID, domain.InheritRequest{TenantIDs: []string{"1", "2"}})
	require.NoError(t, err)

	t1 := partnerview.Visible(tbl.Partners(), "1")
	require.Len(t, t1, 1)
	assert.True(t, t1[0].IsInherited())
	assert.Equal(t, "ACME", t1[0].Name)
	assert.Equal(t, "https://a.example/as2", t1[0].URL)

	_, err = e.UpdateMaster(m.ID, domain.PartnerPatch{URL: domain.Ptr("https://b.example/as2")})
	require.NoError(t, err)
	for _, tenant := range []string{"1", "2"} {
		ps := partnerview.Visible(tbl.Partners(), tenant)
		require.Len(t, ps, 1)
		assert.Equal(t, "https://b.example/as2", ps[0].URL, "tenant %s", tenant)
	}
}
