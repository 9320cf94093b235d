// Package storage defines the persistence interfaces of the cell graph,
// ACL documents and message boxes. Implementations live in the memstore and
// sqlstore subpackages.
package storage

import (
	"context"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
)

// Cells manages tenant roots.
type Cells interface {
	CreateCell(ctx context.Context, cell *graph.Cell) error
	GetCell(ctx context.Context, id string) (*graph.Cell, error)
	GetCellByName(ctx context.Context, name string) (*graph.Cell, error)
	ListCells(ctx context.Context) ([]*graph.Cell, error)
	DeleteCell(ctx context.Context, id string) error
}

// Boxes manages the boxes of a cell. Schema values are stored in localunit
// form when the schema cell lives on this unit, so lookups compare exactly.
type Boxes interface {
	CreateBox(ctx context.Context, box *graph.Box) error
	GetBox(ctx context.Context, cellID, name string) (*graph.Box, error)
	GetBoxBySchema(ctx context.Context, cellID, schema string) (*graph.Box, error)
	ListBoxes(ctx context.Context, cellID string) ([]*graph.Box, error)
	DeleteBox(ctx context.Context, cellID, name string) error
}

// Roles manages roles. Deleting a role deletes its links but leaves ACL
// documents that reference it untouched.
type Roles interface {
	CreateRole(ctx context.Context, role *graph.Role) error
	GetRole(ctx context.Context, cellID, boxName, name string) (*graph.Role, error)
	ListRoles(ctx context.Context, cellID string) ([]*graph.Role, error)
	DeleteRole(ctx context.Context, cellID, boxName, name string) error
}

// Relations manages relations with the same scoping rules as roles.
type Relations interface {
	CreateRelation(ctx context.Context, rel *graph.Relation) error
	GetRelation(ctx context.Context, cellID, boxName, name string) (*graph.Relation, error)
	ListRelations(ctx context.Context, cellID string) ([]*graph.Relation, error)
	DeleteRelation(ctx context.Context, cellID, boxName, name string) error
}

// Accounts manages the login principals of a cell. Names are unique per
// cell. Deleting an account deletes its role links.
type Accounts interface {
	CreateAccount(ctx context.Context, account *graph.Account) error
	GetAccount(ctx context.Context, cellID, name string) (*graph.Account, error)
	ListAccounts(ctx context.Context, cellID string) ([]*graph.Account, error)
	DeleteAccount(ctx context.Context, cellID, name string) error
}

// ExtCells manages references to external cells. URLs are unique per cell.
type ExtCells interface {
	CreateExtCell(ctx context.Context, ec *graph.ExtCell) error
	GetExtCellByURL(ctx context.Context, cellID, url string) (*graph.ExtCell, error)
	ListExtCells(ctx context.Context, cellID string) ([]*graph.ExtCell, error)
	DeleteExtCell(ctx context.Context, cellID, id string) error
}

// Links manages the many-to-many link tables. UpsertLink is
// idempotent; DeleteLink on an absent link is not an error and reports
// false.
type Links interface {
	UpsertLink(ctx context.Context, link graph.Link) error
	DeleteLink(ctx context.Context, link graph.Link) (bool, error)
	LinkExists(ctx context.Context, link graph.Link) (bool, error)
	ListLinks(ctx context.Context, cellID string, kind graph.LinkKind, fromID string) ([]graph.Link, error)
}

// Acls loads and saves the ACL document of a cell root (boxName "") or a
// box root. A resource without a stored document loads a nil Acl with no
// error.
type Acls interface {
	LoadAcl(ctx context.Context, cellID, boxName string) (*acl.Acl, error)
	SaveAcl(ctx context.Context, cellID, boxName string, a *acl.Acl) error
}

// Messages manages the inbox and outbox of a cell.
//
// UpdateReceivedStatus is a compare-and-set on the status column: it
// reports false without error when the stored status no longer equals
// from, which is how concurrent approvals lose.
type Messages interface {
	CreateReceived(ctx context.Context, cellID string, m *message.Received) error
	GetReceived(ctx context.Context, cellID, id string) (*message.Received, error)
	ListReceived(ctx context.Context, cellID string) ([]*message.Received, error)
	UpdateReceivedStatus(ctx context.Context, cellID, id string, from, to message.Status) (bool, error)
	CreateSent(ctx context.Context, cellID string, m *message.Sent) error
	GetSent(ctx context.Context, cellID, id string) (*message.Sent, error)
	ListSent(ctx context.Context, cellID string) ([]*message.Sent, error)
}

// Store is the full persistence surface.
//
// InTx runs fn against a store view whose writes commit together; an error
// from fn discards every write made through the view. Reads inside the
// transaction observe its own writes.
type Store interface {
	Cells
	Boxes
	Roles
	Relations
	Accounts
	ExtCells
	Links
	Acls
	Messages

	InTx(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
