// Package graph defines the entities of the per-cell trust graph: boxes,
// roles, relations, external cells and the links between them. Storage and
// evaluation live elsewhere; this package only knows shapes, identities and
// URL forms.
package graph

import (
	"time"

	"github.com/looplj/cellhub/internal/pkg/xuri"
)

// Cell is a tenant root. Its URL on the unit is {unitBase}/{Name}/.
type Cell struct {
	ID        string
	Name      string
	OwnerURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// URL returns the fully-qualified cell URL.
func (c Cell) URL(unitBase string) string {
	return xuri.EnsureTrailingSlash(unitBase) + c.Name + "/"
}

// Box is a sub-tree under a cell, optionally bound to an application schema
// cell. Schema is stored in localunit form when the schema cell lives on
// this unit.
type Box struct {
	ID        string
	CellID    string
	Name      string
	Schema    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is a grant target. BoxName is empty for cell-level roles; roles with
// the same name under different boxes (or none) are distinct entities.
type Role struct {
	ID        string
	CellID    string
	BoxName   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBox reports whether the role is box-scoped.
func (r Role) HasBox() bool { return r.BoxName != "" }

// URL returns the role resource URL under its cell:
// {cell}/__role/{box|__}/{name}.
func (r Role) URL(cellURL string) string {
	return classMemberURL(cellURL, "__role", r.BoxName, r.Name)
}

// Relation is a named grouping of trusted external cells, optionally
// box-scoped like Role.
type Relation struct {
	ID        string
	CellID    string
	BoxName   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBox reports whether the relation is box-scoped.
func (r Relation) HasBox() bool { return r.BoxName != "" }

// URL returns the relation resource URL under its cell:
// {cell}/__relation/{box|__}/{name}.
func (r Relation) URL(cellURL string) string {
	return classMemberURL(cellURL, "__relation", r.BoxName, r.Name)
}

// ExtCell is a reference to another cell participating in a trust
// relationship. URL is normalized with a trailing slash.
type ExtCell struct {
	ID        string
	CellID    string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account is a login principal under a cell. PasswordHash is a bcrypt
// hash; the plaintext is never stored.
type Account struct {
	ID           string
	CellID       string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// URL returns the account resource URL under its cell.
func (a Account) URL(cellURL string) string {
	return xuri.EnsureTrailingSlash(cellURL) + "__ctl/Account/" + a.Name
}

// LinkKind names the many-to-many link tables of the graph.
type LinkKind string

const (
	LinkRelationExtCell LinkKind = "relation-extcell"
	LinkRoleExtCell     LinkKind = "role-extcell"
	LinkRelationRole    LinkKind = "relation-role"
	LinkAccountRole     LinkKind = "account-role"
)

// Link joins two graph entities of the kinds above, by entity ID.
type Link struct {
	CellID string
	Kind   LinkKind
	FromID string
	ToID   string
}

func classMemberURL(cellURL, segment, boxName, name string) string {
	box := boxName
	if box == "" {
		box = "__"
	}

	return xuri.EnsureTrailingSlash(cellURL) + segment + "/" + box + "/" + name
}
