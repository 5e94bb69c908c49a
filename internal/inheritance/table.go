package inheritance

import (
	"fmt"

	"github.com/dropDatabas3/as2aas/domain"
)

// Table es un Store en memoria que preserva el orden de inserción.
// No tiene locks: es para uso secuencial (mock y fake server con su propio mutex).
type Table struct {
	partners []domain.Partner
	rels     []domain.Inheritance
	seq      map[string]int
}

func NewTable() *Table {
	return &Table{seq: map[string]int{}}
}

func (t *Table) Partners() []domain.Partner {
	return append([]domain.Partner(nil), t.partners...)
}

func (t *Table) Partner(id string) (domain.Partner, bool) {
	if i := t.partnerIndex(id); i >= 0 {
		return t.partners[i], true
	}
	return domain.Partner{}, false
}

func (t *Table) PutPartner(p domain.Partner) {
	if i := t.partnerIndex(p.ID); i >= 0 {
		t.partners[i] = p
		return
	}
	t.partners = append(t.partners, p)
}

func (t *Table) DeletePartner(id string) bool {
	i := t.partnerIndex(id)
	if i < 0 {
		return false
	}
	t.partners = append(t.partners[:i], t.partners[i+1:]...)
	return true
}

func (t *Table) Relationships() []domain.Inheritance {
	return append([]domain.Inheritance(nil), t.rels...)
}

func (t *Table) PutRelationship(r domain.Inheritance) {
	for i := range t.rels {
		if t.rels[i].ID == r.ID {
			t.rels[i] = r
			return
		}
	}
	t.rels = append(t.rels, r)
}

func (t *Table) DeleteRelationship(id string) bool {
	for i := range t.rels {
		if t.rels[i].ID == id {
			t.rels = append(t.rels[:i], t.rels[i+1:]...)
			return true
		}
	}
	return false
}

// NextID: prefix_001, prefix_002, ...
func (t *Table) NextID(prefix string) string {
	t.seq[prefix]++
	return fmt.Sprintf("%s_%03d", prefix, t.seq[prefix])
}

// Reset vacía la tabla y reinicia las secuencias.
func (t *Table) Reset() {
	t.partners = nil
	t.rels = nil
	t.seq = map[string]int{}
}

func (t *Table) partnerIndex(id string) int {
	for i := range t.partners {
		if t.partners[i].ID == id {
			return i
		}
	}
	return -1
}
