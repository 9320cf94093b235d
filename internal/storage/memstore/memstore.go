// Package memstore is the in-memory storage.Store used by tests and
// single-process development units.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/storage"
)

type data struct {
	cells     map[string]graph.Cell     // by id
	boxes     map[string]graph.Box      // cellID/name
	roles     map[string]graph.Role     // cellID/boxName/name
	relations map[string]graph.Relation // cellID/boxName/name
	accounts  map[string]graph.Account  // cellID/name
	extCells  map[string]graph.ExtCell  // by id
	links     map[string]graph.Link     // cellID/kind/from/to
	acls      map[string]acl.Acl       // cellID/boxName
	received  map[string]message.Received
	sent      map[string]message.Sent
}

func newData() *data {
	return &data{
		cells:     map[string]graph.Cell{},
		boxes:     map[string]graph.Box{},
		roles:     map[string]graph.Role{},
		relations: map[string]graph.Relation{},
		accounts:  map[string]graph.Account{},
		extCells:  map[string]graph.ExtCell{},
		links:     map[string]graph.Link{},
		acls:      map[string]acl.Acl{},
		received:  map[string]message.Received{},
		sent:      map[string]message.Sent{},
	}
}

func (d *data) clone() *data {
	out := newData()

	for k, v := range d.cells {
		out.cells[k] = v
	}
	for k, v := range d.boxes {
		out.boxes[k] = v
	}
	for k, v := range d.roles {
		out.roles[k] = v
	}
	for k, v := range d.relations {
		out.relations[k] = v
	}
	for k, v := range d.accounts {
		out.accounts[k] = v
	}
	for k, v := range d.extCells {
		out.extCells[k] = v
	}
	for k, v := range d.links {
		out.links[k] = v
	}
	for k, v := range d.acls {
		out.acls[k] = v
	}
	for k, v := range d.received {
		out.received[k] = v
	}
	for k, v := range d.sent {
		out.sent[k] = v
	}

	return out
}

// Store keeps everything behind one RWMutex. InTx snapshots the data and
// restores it when the transaction function fails.
type Store struct {
	mu     sync.RWMutex
	data   *data
	nolock bool
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newData()}
}

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func (s *Store) rlock() func() {
	if s.nolock {
		return func() {}
	}

	s.mu.RLock()

	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.nolock {
		return func() {}
	}

	s.mu.Lock()

	return s.mu.Unlock
}

// InTx runs fn under the store's write lock. The data is snapshotted first
// and restored when fn fails, so a failed transaction leaves no writes.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.nolock {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{data: s.data, nolock: true}

	if err := fn(tx); err != nil {
		s.data = snapshot

		return err
	}

	return nil
}

func (s *Store) Close() error { return nil }

// --- cells ---

func (s *Store) CreateCell(_ context.Context, cell *graph.Cell) error {
	defer s.lock()()

	for _, c := range s.data.cells {
		if c.Name == cell.Name {
			return errcode.EntityAlreadyExists.WithParams(cell.Name)
		}
	}

	s.data.cells[cell.ID] = *cell

	return nil
}

func (s *Store) GetCell(_ context.Context, id string) (*graph.Cell, error) {
	defer s.rlock()()

	if c, ok := s.data.cells[id]; ok {
		out := c

		return &out, nil
	}

	return nil, nil
}

func (s *Store) GetCellByName(_ context.Context, name string) (*graph.Cell, error) {
	defer s.rlock()()

	for _, c := range s.data.cells {
		if c.Name == name {
			out := c

			return &out, nil
		}
	}

	return nil, nil
}

func (s *Store) ListCells(_ context.Context) ([]*graph.Cell, error) {
	defer s.rlock()()

	out := make([]*graph.Cell, 0, len(s.data.cells))

	for _, c := range s.data.cells {
		cell := c
		out = append(out, &cell)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *Store) DeleteCell(_ context.Context, id string) error {
	defer s.lock()()

	delete(s.data.cells, id)

	prefix := id + "\x00"

	deleteByPrefix(s.data.boxes, prefix)
	deleteByPrefix(s.data.roles, prefix)
	deleteByPrefix(s.data.relations, prefix)
	deleteByPrefix(s.data.accounts, prefix)
	deleteByPrefix(s.data.links, prefix)
	deleteByPrefix(s.data.acls, prefix)
	deleteByPrefix(s.data.received, prefix)
	deleteByPrefix(s.data.sent, prefix)

	for k, ec := range s.data.extCells {
		if ec.CellID == id {
			delete(s.data.extCells, k)
		}
	}

	return nil
}

func deleteByPrefix[V any](m map[string]V, prefix string) {
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			delete(m, k)
		}
	}
}

// --- boxes ---

func (s *Store) CreateBox(_ context.Context, box *graph.Box) error {
	defer s.lock()()

	k := key(box.CellID, box.Name)
	if _, ok := s.data.boxes[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(box.Name)
	}

	s.data.boxes[k] = *box

	return nil
}

func (s *Store) GetBox(_ context.Context, cellID, name string) (*graph.Box, error) {
	defer s.rlock()()

	if b, ok := s.data.boxes[key(cellID, name)]; ok {
		out := b

		return &out, nil
	}

	return nil, nil
}

func (s *Store) GetBoxBySchema(_ context.Context, cellID, schema string) (*graph.Box, error) {
	defer s.rlock()()

	for _, b := range s.data.boxes {
		if b.CellID == cellID && b.Schema != "" && b.Schema == schema {
			out := b

			return &out, nil
		}
	}

	return nil, nil
}

func (s *Store) ListBoxes(_ context.Context, cellID string) ([]*graph.Box, error) {
	defer s.rlock()()

	var out []*graph.Box

	for _, b := range s.data.boxes {
		if b.CellID == cellID {
			box := b
			out = append(out, &box)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *Store) DeleteBox(_ context.Context, cellID, name string) error {
	defer s.lock()()

	delete(s.data.boxes, key(cellID, name))
	delete(s.data.acls, key(cellID, name))

	return nil
}

// --- roles ---

func (s *Store) CreateRole(_ context.Context, role *graph.Role) error {
	defer s.lock()()

	k := key(role.CellID, role.BoxName, role.Name)
	if _, ok := s.data.roles[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(role.Name)
	}

	s.data.roles[k] = *role

	return nil
}

func (s *Store) GetRole(_ context.Context, cellID, boxName, name string) (*graph.Role, error) {
	defer s.rlock()()

	if r, ok := s.data.roles[key(cellID, boxName, name)]; ok {
		out := r

		return &out, nil
	}

	return nil, nil
}

func (s *Store) ListRoles(_ context.Context, cellID string) ([]*graph.Role, error) {
	defer s.rlock()()

	var out []*graph.Role

	for _, r := range s.data.roles {
		if r.CellID == cellID {
			role := r
			out = append(out, &role)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BoxName != out[j].BoxName {
			return out[i].BoxName < out[j].BoxName
		}

		return out[i].Name < out[j].Name
	})

	return out, nil
}

func (s *Store) DeleteRole(_ context.Context, cellID, boxName, name string) error {
	defer s.lock()()

	k := key(cellID, boxName, name)

	r, ok := s.data.roles[k]
	if !ok {
		return nil
	}

	delete(s.data.roles, k)
	s.deleteLinksOf(cellID, r.ID)

	return nil
}

// --- relations ---

func (s *Store) CreateRelation(_ context.Context, rel *graph.Relation) error {
	defer s.lock()()

	k := key(rel.CellID, rel.BoxName, rel.Name)
	if _, ok := s.data.relations[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(rel.Name)
	}

	s.data.relations[k] = *rel

	return nil
}

func (s *Store) GetRelation(_ context.Context, cellID, boxName, name string) (*graph.Relation, error) {
	defer s.rlock()()

	if r, ok := s.data.relations[key(cellID, boxName, name)]; ok {
		out := r

		return &out, nil
	}

	return nil, nil
}

func (s *Store) ListRelations(_ context.Context, cellID string) ([]*graph.Relation, error) {
	defer s.rlock()()

	var out []*graph.Relation

	for _, r := range s.data.relations {
		if r.CellID == cellID {
			rel := r
			out = append(out, &rel)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BoxName != out[j].BoxName {
			return out[i].BoxName < out[j].BoxName
		}

		return out[i].Name < out[j].Name
	})

	return out, nil
}

func (s *Store) DeleteRelation(_ context.Context, cellID, boxName, name string) error {
	defer s.lock()()

	k := key(cellID, boxName, name)

	r, ok := s.data.relations[k]
	if !ok {
		return nil
	}

	delete(s.data.relations, k)
	s.deleteLinksOf(cellID, r.ID)

	return nil
}

func (s *Store) deleteLinksOf(cellID, entityID string) {
	for k, l := range s.data.links {
		if l.CellID == cellID && (l.FromID == entityID || l.ToID == entityID) {
			delete(s.data.links, k)
		}
	}
}

// --- accounts ---

func (s *Store) CreateAccount(_ context.Context, account *graph.Account) error {
	defer s.lock()()

	k := key(account.CellID, account.Name)
	if _, ok := s.data.accounts[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(account.Name)
	}

	s.data.accounts[k] = *account

	return nil
}

func (s *Store) GetAccount(_ context.Context, cellID, name string) (*graph.Account, error) {
	defer s.rlock()()

	if a, ok := s.data.accounts[key(cellID, name)]; ok {
		out := a

		return &out, nil
	}

	return nil, nil
}

func (s *Store) ListAccounts(_ context.Context, cellID string) ([]*graph.Account, error) {
	defer s.rlock()()

	var out []*graph.Account

	for _, a := range s.data.accounts {
		if a.CellID == cellID {
			account := a
			out = append(out, &account)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, cellID, name string) error {
	defer s.lock()()

	k := key(cellID, name)

	a, ok := s.data.accounts[k]
	if !ok {
		return nil
	}

	delete(s.data.accounts, k)
	s.deleteLinksOf(cellID, a.ID)

	return nil
}

// --- ext cells ---

func (s *Store) CreateExtCell(_ context.Context, ec *graph.ExtCell) error {
	defer s.lock()()

	for _, e := range s.data.extCells {
		if e.CellID == ec.CellID && e.URL == ec.URL {
			return errcode.EntityAlreadyExists.WithParams(ec.URL)
		}
	}

	s.data.extCells[ec.ID] = *ec

	return nil
}

func (s *Store) GetExtCellByURL(_ context.Context, cellID, url string) (*graph.ExtCell, error) {
	defer s.rlock()()

	for _, e := range s.data.extCells {
		if e.CellID == cellID && e.URL == url {
			out := e

			return &out, nil
		}
	}

	return nil, nil
}

func (s *Store) ListExtCells(_ context.Context, cellID string) ([]*graph.ExtCell, error) {
	defer s.rlock()()

	var out []*graph.ExtCell

	for _, e := range s.data.extCells {
		if e.CellID == cellID {
			ec := e
			out = append(out, &ec)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })

	return out, nil
}

func (s *Store) DeleteExtCell(_ context.Context, cellID, id string) error {
	defer s.lock()()

	e, ok := s.data.extCells[id]
	if !ok || e.CellID != cellID {
		return nil
	}

	delete(s.data.extCells, id)
	s.deleteLinksOf(cellID, id)

	return nil
}

// --- links ---

func linkKey(l graph.Link) string {
	return key(l.CellID, string(l.Kind), l.FromID, l.ToID)
}

func (s *Store) UpsertLink(_ context.Context, link graph.Link) error {
	defer s.lock()()

	s.data.links[linkKey(link)] = link

	return nil
}

func (s *Store) DeleteLink(_ context.Context, link graph.Link) (bool, error) {
	defer s.lock()()

	k := linkKey(link)
	if _, ok := s.data.links[k]; !ok {
		return false, nil
	}

	delete(s.data.links, k)

	return true, nil
}

func (s *Store) LinkExists(_ context.Context, link graph.Link) (bool, error) {
	defer s.rlock()()

	_, ok := s.data.links[linkKey(link)]

	return ok, nil
}

func (s *Store) ListLinks(_ context.Context, cellID string, kind graph.LinkKind, fromID string) ([]graph.Link, error) {
	defer s.rlock()()

	var out []graph.Link

	for _, l := range s.data.links {
		if l.CellID == cellID && l.Kind == kind && l.FromID == fromID {
			out = append(out, l)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ToID < out[j].ToID })

	return out, nil
}

// --- acls ---

func (s *Store) LoadAcl(_ context.Context, cellID, boxName string) (*acl.Acl, error) {
	defer s.rlock()()

	if a, ok := s.data.acls[key(cellID, boxName)]; ok {
		out := a
		out.Aces = append([]acl.Ace(nil), a.Aces...)

		return &out, nil
	}

	return nil, nil
}

func (s *Store) SaveAcl(_ context.Context, cellID, boxName string, a *acl.Acl) error {
	defer s.lock()()

	stored := *a
	stored.Aces = append([]acl.Ace(nil), a.Aces...)

	s.data.acls[key(cellID, boxName)] = stored

	return nil
}

// --- messages ---

func (s *Store) CreateReceived(_ context.Context, cellID string, m *message.Received) error {
	defer s.lock()()

	k := key(cellID, m.ID)
	if _, ok := s.data.received[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(m.ID)
	}

	stored := *m
	stored.RequestObjects = append([]message.RequestObject(nil), m.RequestObjects...)

	s.data.received[k] = stored

	return nil
}

func (s *Store) GetReceived(_ context.Context, cellID, id string) (*message.Received, error) {
	defer s.rlock()()

	if m, ok := s.data.received[key(cellID, id)]; ok {
		out := m
		out.RequestObjects = append([]message.RequestObject(nil), m.RequestObjects...)

		return &out, nil
	}

	return nil, nil
}

func (s *Store) ListReceived(_ context.Context, cellID string) ([]*message.Received, error) {
	defer s.rlock()()

	var out []*message.Received

	prefix := cellID + "\x00"
	for k, m := range s.data.received {
		if strings.HasPrefix(k, prefix) {
			msg := m
			out = append(out, &msg)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Store) UpdateReceivedStatus(_ context.Context, cellID, id string, from, to message.Status) (bool, error) {
	defer s.lock()()

	k := key(cellID, id)

	m, ok := s.data.received[k]
	if !ok || m.Status != from {
		return false, nil
	}

	m.Status = to
	s.data.received[k] = m

	return true, nil
}

func (s *Store) CreateSent(_ context.Context, cellID string, m *message.Sent) error {
	defer s.lock()()

	k := key(cellID, m.ID)
	if _, ok := s.data.sent[k]; ok {
		return errcode.EntityAlreadyExists.WithParams(m.ID)
	}

	stored := *m
	stored.RequestObjects = append([]message.RequestObject(nil), m.RequestObjects...)
	stored.Results = append([]message.Result(nil), m.Results...)

	s.data.sent[k] = stored

	return nil
}

func (s *Store) GetSent(_ context.Context, cellID, id string) (*message.Sent, error) {
	defer s.rlock()()

	if m, ok := s.data.sent[key(cellID, id)]; ok {
		out := m

		return &out, nil
	}

	return nil, nil
}

func (s *Store) ListSent(_ context.Context, cellID string) ([]*message.Sent, error) {
	defer s.rlock()()

	var out []*message.Sent

	prefix := cellID + "\x00"
	for k, m := range s.data.sent {
		if strings.HasPrefix(k, prefix) {
			msg := m
			out = append(out, &msg)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
