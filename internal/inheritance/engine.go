// Package inheritance implementa el motor de master partners: alta de masters,
// herencia hacia tenants con overrides por campo, propagación de cambios del
// master respetando overrides, baja de herencia y borrado en cascada.
//
// El motor no sincroniza: el llamador garantiza acceso secuencial al Store.
package inheritance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
)

// Store es la tabla ordenada de partners y relaciones sobre la que opera el motor.
type Store interface {
	Partners() []domain.Partner
	Partner(id string) (domain.Partner, bool)
	// PutPartner inserta al final o reemplaza en su lugar si el id ya existe.
	PutPartner(p domain.Partner)
	DeletePartner(id string) bool

	Relationships() []domain.Inheritance
	PutRelationship(r domain.Inheritance)
	DeleteRelationship(id string) bool

	// NextID devuelve ids secuenciales con el prefijo dado: prt_master_001.
	NextID(prefix string) string
}

// Health: score mínimo para contar un master como sano.
const HealthyScore = 70

// Engine opera sobre un Store.
type Engine struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

type Option func(*Engine)

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.Named("inheritance")
	return e
}

// =================================================================================
// MASTERS
// =================================================================================

// Masters devuelve los masters en orden de alta.
func (e *Engine) Masters() []domain.Partner {
	var out []domain.Partner
	for _, p := range e.store.Partners() {
		if p.IsMaster() {
			out = append(out, p)
		}
	}
	return out
}

// Master busca un master; cualquier otra cosa con ese id es NotFound.
func (e *Engine) Master(id string) (domain.Partner, error) {
	p, ok := e.store.Partner(id)
	if !ok || !p.IsMaster() {
		return domain.Partner{}, as2err.NotFound("master partner", id)
	}
	return p, nil
}

// CreateMaster da de alta un master de accountID. name, as2_id y url son obligatorios.
func (e *Engine) CreateMaster(accountID string, in domain.PartnerPatch) (domain.Partner, error) {
	if err := ValidateNew(in); err != nil {
		return domain.Partner{}, err
	}
	s := in.Apply(DefaultSettings())
	p := domain.NewMasterPartner(e.store.NextID("prt_master"), accountID, s)
	p.HealthStatus = "excellent"
	p.HealthScore = 100
	p.CreatedAt = e.now().UTC()
	p.UpdatedAt = p.CreatedAt
	e.store.PutPartner(p)
	e.log.Debug("master partner created", logger.MasterPartnerID(p.ID), logger.AccountID(accountID))
	return p, nil
}

// UpdateMaster aplica patch al master y re-copia cada campo cambiado a las
// proyecciones, salvo los que la proyección tiene en su mapa de overrides.
func (e *Engine) UpdateMaster(id string, patch domain.PartnerPatch) (domain.Partner, error) {
	master, err := e.Master(id)
	if err != nil {
		return domain.Partner{}, err
	}
	if err := validatePatch(patch); err != nil {
		return domain.Partner{}, err
	}
	now := e.now().UTC()
	master.PartnerSettings = patch.Apply(master.PartnerSettings)
	master.UpdatedAt = now
	e.store.PutPartner(master)

	propagated := 0
	for _, rel := range e.relationshipsOf(id) {
		proj, ok := e.store.Partner(rel.InheritedPartnerID)
		if !ok {
			continue
		}
		changed := patch.Without(rel.Overrides.Fields()...)
		if changed.IsEmpty() {
			continue
		}
		proj.PartnerSettings = changed.Apply(proj.PartnerSettings)
		proj.UpdatedAt = now
		e.store.PutPartner(proj)
		propagated++
	}
	e.log.Debug("master partner updated",
		logger.MasterPartnerID(id), zap.Strings("fields", patch.Fields()), logger.Count(propagated))
	return master, nil
}

// DeleteMaster borra el master con todas sus relaciones y proyecciones.
func (e *Engine) DeleteMaster(id string) error {
	if _, err := e.Master(id); err != nil {
		return err
	}
	rels := e.relationshipsOf(id)
	for _, rel := range rels {
		e.store.DeletePartner(rel.InheritedPartnerID)
		e.store.DeleteRelationship(rel.ID)
	}
	// Proyecciones sin relación (no debería haber) tampoco sobreviven al master.
	for _, p := range e.store.Partners() {
		if mid, ok := p.MasterID(); ok && mid == id {
			e.store.DeletePartner(p.ID)
		}
	}
	e.store.DeletePartner(id)
	e.log.Debug("master partner deleted", logger.MasterPartnerID(id), logger.Count(len(rels)))
	return nil
}

// =================================================================================
// HERENCIA
// =================================================================================

// Inherit proyecta el master en cada tenant de req (duplicados colapsan).
// Si el par (master, tenant) ya existe se actualiza en el lugar: se reemplazan
// los overrides, se recalcula la proyección desde el master y se conserva el id.
func (e *Engine) Inherit(masterID string, req domain.InheritRequest) (domain.InheritResult, error) {
	master, err := e.Master(masterID)
	if err != nil {
		return domain.InheritResult{}, err
	}
	res := domain.InheritResult{Success: true, Results: []domain.InheritedTenant{}}
	tenants := uniqueTenants(req.TenantIDs)
	if len(tenants) == 0 {
		return res, nil
	}
	if err := validatePatch(req.Overrides); err != nil {
		return domain.InheritResult{}, err
	}

	now := e.now().UTC()
	for _, tenant := range tenants {
		overrides := req.Overrides.Clone()
		settings := overrides.Apply(master.PartnerSettings)

		rel, exists := e.relationship(masterID, tenant)
		if exists {
			rel.Overrides = overrides
			rel.UpdatedAt = now
		} else {
			rel = domain.Inheritance{
				ID:                 "inh_" + uuid.NewString(),
				MasterPartnerID:    masterID,
				TenantID:           tenant,
				InheritedPartnerID: "prt_inherited_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
				Overrides:          overrides,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
		}

		proj, err := domain.NewInheritedPartner(rel.InheritedPartnerID, masterID, tenant, settings)
		if err != nil {
			return domain.InheritResult{}, err
		}
		proj.HealthStatus = master.HealthStatus
		proj.HealthScore = master.HealthScore
		proj.CreatedAt = rel.CreatedAt
		proj.UpdatedAt = now
		if old, ok := e.store.Partner(rel.InheritedPartnerID); ok {
			proj.CreatedAt = old.CreatedAt
			proj.UsageCount = old.UsageCount
		}
		e.store.PutPartner(proj)
		e.store.PutRelationship(rel)

		res.Results = append(res.Results, domain.InheritedTenant{
			TenantID:           tenant,
			InheritedPartnerID: rel.InheritedPartnerID,
			InheritanceID:      rel.ID,
		})
	}
	res.InheritedCount = len(res.Results)
	e.log.Debug("master partner inherited",
		logger.MasterPartnerID(masterID), zap.Strings("tenants", tenants), logger.Count(res.InheritedCount))
	return res, nil
}

// RemoveInheritance borra relación y proyección para cada tenant dado.
// Tenants sin relación no cuentan y no son error.
func (e *Engine) RemoveInheritance(masterID string, tenantIDs []string) (int, error) {
	if _, err := e.Master(masterID); err != nil {
		return 0, err
	}
	removed := 0
	for _, tenant := range uniqueTenants(tenantIDs) {
		rel, ok := e.relationship(masterID, tenant)
		if !ok {
			continue
		}
		e.store.DeletePartner(rel.InheritedPartnerID)
		e.store.DeleteRelationship(rel.ID)
		removed++
	}
	e.log.Debug("inheritance removed", logger.MasterPartnerID(masterID), logger.Count(removed))
	return removed, nil
}

// Status arma la foto del master desde las relaciones vivas.
func (e *Engine) Status(masterID string) (domain.InheritanceStatus, error) {
	master, err := e.Master(masterID)
	if err != nil {
		return domain.InheritanceStatus{}, err
	}
	st := domain.InheritanceStatus{MasterPartner: master, InheritedByTenants: []domain.Inheritance{}}
	for _, rel := range e.relationshipsOf(masterID) {
		proj, ok := e.store.Partner(rel.InheritedPartnerID)
		rel.Active = ok && proj.Active
		rel.Overrides = rel.Overrides.Clone()
		st.InheritedByTenants = append(st.InheritedByTenants, rel)
		st.Stats.TotalInherited++
		if rel.Active {
			st.Stats.ActiveInherited++
		}
	}
	return st, nil
}

// Health es un rollup de solo lectura sobre los masters.
func (e *Engine) Health() domain.MasterPartnerHealth {
	masters := e.Masters()
	h := domain.MasterPartnerHealth{TotalPartners: len(masters), LastCheck: e.now().UTC()}
	if len(masters) == 0 {
		return h
	}
	var sum float64
	for _, m := range masters {
		sum += m.HealthScore
		if m.HealthScore >= HealthyScore {
			h.HealthyPartners++
		}
	}
	h.AverageHealthScore = sum / float64(len(masters))
	return h
}

// =================================================================================
// OPERACIONES DEL TENANT SOBRE PROYECCIONES
// =================================================================================

// RelationshipFor devuelve la relación de una proyección heredada.
func (e *Engine) RelationshipFor(partnerID string) (domain.Inheritance, bool) {
	for _, rel := range e.store.Relationships() {
		if rel.InheritedPartnerID == partnerID {
			return rel, true
		}
	}
	return domain.Inheritance{}, false
}

// OverrideProjection aplica un PATCH del tenant sobre su proyección heredada.
// Los campos tocados pasan a ser overrides persistentes de la relación.
func (e *Engine) OverrideProjection(partnerID string, patch domain.PartnerPatch) (domain.Partner, error) {
	proj, ok := e.store.Partner(partnerID)
	if !ok || !proj.IsInherited() {
		return domain.Partner{}, as2err.NotFound("inherited partner", partnerID)
	}
	if err := validatePatch(patch); err != nil {
		return domain.Partner{}, err
	}
	rel, ok := e.RelationshipFor(partnerID)
	if !ok {
		return domain.Partner{}, as2err.NotFound("inheritance", partnerID)
	}
	now := e.now().UTC()
	rel.Overrides = rel.Overrides.Merge(patch.Clone())
	rel.UpdatedAt = now
	e.store.PutRelationship(rel)

	proj.PartnerSettings = patch.Apply(proj.PartnerSettings)
	proj.UpdatedAt = now
	e.store.PutPartner(proj)
	return proj, nil
}

// DetachProjection borra una proyección y su relación (DELETE del tenant).
func (e *Engine) DetachProjection(partnerID string) error {
	proj, ok := e.store.Partner(partnerID)
	if !ok || !proj.IsInherited() {
		return as2err.NotFound("inherited partner", partnerID)
	}
	mid, _ := proj.MasterID()
	_, err := e.RemoveInheritance(mid, []string{proj.TenantID()})
	if err != nil {
		// Master inexistente: limpiamos igual la proyección huérfana.
		e.store.DeletePartner(partnerID)
		if rel, ok := e.RelationshipFor(partnerID); ok {
			e.store.DeleteRelationship(rel.ID)
		}
	}
	return nil
}

// =================================================================================
// HELPERS
// =================================================================================

func (e *Engine) relationshipsOf(masterID string) []domain.Inheritance {
	var out []domain.Inheritance
	for _, rel := range e.store.Relationships() {
		if rel.MasterPartnerID == masterID {
			out = append(out, rel)
		}
	}
	return out
}

func (e *Engine) relationship(masterID, tenant string) (domain.Inheritance, bool) {
	for _, rel := range e.store.Relationships() {
		if rel.MasterPartnerID == masterID && rel.TenantID == tenant {
			return rel, true
		}
	}
	return domain.Inheritance{}, false
}

// uniqueTenants colapsa duplicados y descarta vacíos, preservando el orden.
func uniqueTenants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
