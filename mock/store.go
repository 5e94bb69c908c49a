package mock

import (
	"time"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/inheritance"
)

// Store es el estado en memoria del mock. Todas las colecciones preservan el
// orden de inserción. No hay locks: el mock es tooling de test secuencial, y
// quien lo comparta entre goroutines (internal/fakeapi) serializa por fuera.
type Store struct {
	*inheritance.Table

	accounts     []domain.Account
	tenants      []domain.Tenant
	messages     []domain.Message
	// payloads guarda el contenido crudo de mensajes y certificados, por id.
	payloads     map[string][]byte
	certificates []domain.Certificate
	webhooks     []domain.WebhookEndpoint
	now          func() time.Time
}

// NewStore crea un store con los datos semilla.
func NewStore() *Store {
	s := &Store{Table: inheritance.NewTable(), now: time.Now}
	s.Seed()
	return s
}

// SetClock fija el reloj usado para timestamps (tests).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Reset vacía todo, incluidas las secuencias de ids, sin volver a sembrar.
func (s *Store) Reset() {
	s.Table.Reset()
	s.accounts = nil
	s.tenants = nil
	s.messages = nil
	s.payloads = map[string][]byte{}
	s.certificates = nil
	s.webhooks = nil
}

// Seed carga la cuenta 1, los tenants 1 y 2 y dos partners del tenant 1.
func (s *Store) Seed() {
	s.Reset()
	s.accounts = []domain.Account{{ID: "1", Name: "Test Account", PlanType: "startup", Status: "active", TenantsCount: 2}}
	s.tenants = []domain.Tenant{
		{ID: "1", AccountID: "1", Name: "Test Tenant 1", Slug: "test-tenant-1", Status: "active"},
		{ID: "2", AccountID: "1", Name: "Test Tenant 2", Slug: "test-tenant-2", Status: "active"},
	}
	seed := []struct {
		name, as2, url string
		mdn            domain.MDNMode
	}{
		{"McKesson Corporation", "MCKESSON", "https://as2.mckesson.com/receive", domain.MDNAsync},
		{"Cardinal Health", "CARDINAL", "https://as2.cardinal.com/receive", domain.MDNSync},
	}
	for _, p := range seed {
		partner, _ := domain.NewTenantPartner(s.NextID("prt"), "1", domain.PartnerSettings{
			Name: p.name, AS2ID: p.as2, URL: p.url,
			Sign: true, Encrypt: true, MDNMode: p.mdn, Active: true,
		})
		s.PutPartner(partner)
	}
}

// Accounts devuelve una copia de las cuentas.
func (s *Store) Accounts() []domain.Account { return append([]domain.Account(nil), s.accounts...) }

// Tenants devuelve una copia de los tenants.
func (s *Store) Tenants() []domain.Tenant { return append([]domain.Tenant(nil), s.tenants...) }

func (s *Store) Messages() []domain.Message { return append([]domain.Message(nil), s.messages...) }

func (s *Store) Certificates() []domain.Certificate {
	return append([]domain.Certificate(nil), s.certificates...)
}

func (s *Store) Webhooks() []domain.WebhookEndpoint {
	return append([]domain.WebhookEndpoint(nil), s.webhooks...)
}

// PutAccount inserta o reemplaza por id.
func (s *Store) PutAccount(a domain.Account) {
	for i := range s.accounts {
		if s.accounts[i].ID == a.ID {
			s.accounts[i] = a
			return
		}
	}
	s.accounts = append(s.accounts, a)
}

func (s *Store) PutTenant(t domain.Tenant) {
	for i := range s.tenants {
		if s.tenants[i].ID == t.ID {
			s.tenants[i] = t
			return
		}
	}
	s.tenants = append(s.tenants, t)
}

func (s *Store) DeleteTenant(id string) bool {
	for i := range s.tenants {
		if string(s.tenants[i].ID) == id {
			s.tenants = append(s.tenants[:i], s.tenants[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) PutMessage(m domain.Message, payload []byte) {
	if payload != nil {
		s.payloads[m.ID] = payload
	}
	for i := range s.messages {
		if s.messages[i].ID == m.ID {
			s.messages[i] = m
			return
		}
	}
	s.messages = append(s.messages, m)
}

// ClearMessages borra todos los mensajes (sandbox/clear).
func (s *Store) ClearMessages() {
	for _, m := range s.messages {
		delete(s.payloads, m.ID)
	}
	s.messages = nil
}

// Payload devuelve el contenido crudo de un mensaje o certificado.
func (s *Store) Payload(id string) ([]byte, bool) {
	b, ok := s.payloads[id]
	return b, ok
}

// PutCertificateContent guarda el archivo subido de un certificado.
func (s *Store) PutCertificateContent(id string, content []byte) { s.payloads[id] = content }

func (s *Store) PutCertificate(c domain.Certificate) {
	for i := range s.certificates {
		if s.certificates[i].ID == c.ID {
			s.certificates[i] = c
			return
		}
	}
	s.certificates = append(s.certificates, c)
}

func (s *Store) DeleteCertificate(id string) bool {
	for i := range s.certificates {
		if s.certificates[i].ID == id {
			delete(s.payloads, id)
			s.certificates = append(s.certificates[:i], s.certificates[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) PutWebhook(w domain.WebhookEndpoint) {
	for i := range s.webhooks {
		if s.webhooks[i].ID == w.ID {
			s.webhooks[i] = w
			return
		}
	}
	s.webhooks = append(s.webhooks, w)
}

func (s *Store) DeleteWebhook(id string) bool {
	for i := range s.webhooks {
		if s.webhooks[i].ID == id {
			s.webhooks = append(s.webhooks[:i], s.webhooks[i+1:]...)
			return true
		}
	}
	return false
}

// AccountID es la cuenta del store ("" si no hay ninguna).
func (s *Store) AccountID() string {
	if len(s.accounts) == 0 {
		return ""
	}
	return string(s.accounts[0].ID)
}
