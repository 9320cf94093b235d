// Package message models the cell inbox and outbox: received and sent
// messages, their status lifecycle, and the relationship-request payloads a
// Request-type message carries.
package message

import (
	"time"

	"github.com/looplj/cellhub/internal/errcode"
)

// Type distinguishes plain messages from relationship requests.
type Type string

const (
	TypeMessage Type = "message"
	TypeRequest Type = "request"
)

// Status is the lifecycle state of a received message. Message-typed
// messages move freely between unread and read; Request-typed messages
// start at none and transition exactly once to approved or rejected.
type Status string

const (
	StatusNone     Status = "none"
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is legal from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Command is the client-requested status transition.
type Command string

const (
	CommandRead     Command = "read"
	CommandUnread   Command = "unread"
	CommandApproved Command = "approved"
	CommandRejected Command = "rejected"
)

// Valid reports whether c is one of the four commands.
func (c Command) Valid() bool {
	switch c {
	case CommandRead, CommandUnread, CommandApproved, CommandRejected:
		return true
	default:
		return false
	}
}

// RequestType names the graph mutation a RequestObject asks for.
type RequestType string

const (
	RequestRelationAdd    RequestType = "relation.add"
	RequestRelationRemove RequestType = "relation.remove"
	RequestRoleAdd        RequestType = "role.add"
	RequestRoleRemove     RequestType = "role.remove"
)

// Relation reports whether the request targets a Relation (as opposed to a
// Role).
func (t RequestType) Relation() bool {
	return t == RequestRelationAdd || t == RequestRelationRemove
}

// Add reports whether the request creates a link.
func (t RequestType) Add() bool {
	return t == RequestRelationAdd || t == RequestRoleAdd
}

// RequestObject asks the recipient to link or unlink one Relation or Role
// with the external cell at TargetURL. Exactly one of Name (resolved
// against the message's own box) or ClassURL (global form) identifies the
// entity.
type RequestObject struct {
	RequestType RequestType `json:"RequestType"`
	Name        string      `json:"Name,omitempty"`
	ClassURL    string      `json:"ClassUrl,omitempty"`
	TargetURL   string      `json:"TargetUrl"`
}

// Validate checks the shape of a request object.
func (r RequestObject) Validate() error {
	switch r.RequestType {
	case RequestRelationAdd, RequestRelationRemove, RequestRoleAdd, RequestRoleRemove:
	default:
		return errcode.RequestMalformed.WithParams("RequestType")
	}

	if (r.Name == "") == (r.ClassURL == "") {
		return errcode.RequestMalformed.WithParams("Name/ClassUrl")
	}

	if r.TargetURL == "" {
		return errcode.RequestMalformed.WithParams("TargetUrl")
	}

	return nil
}

// Received is a message delivered into a cell's inbox. ID is supplied by
// the sender and unique per cell.
type Received struct {
	ID             string          `json:"__id"`
	From           string          `json:"From"`
	Type           Type            `json:"Type"`
	BoxName        string          `json:"_Box.Name,omitempty"`
	Schema         string          `json:"Schema,omitempty"`
	Title          string          `json:"Title"`
	Body           string          `json:"Body"`
	Priority       int             `json:"Priority"`
	Status         Status          `json:"Status"`
	RequestObjects []RequestObject `json:"RequestObjects,omitempty"`
	InReplyTo      string          `json:"InReplyTo,omitempty"`
	CreatedAt      time.Time       `json:"__published"`
	UpdatedAt      time.Time       `json:"__updated"`
}

// Result records one recipient's delivery outcome on a sent message.
type Result struct {
	To     string `json:"To"`
	Code   string `json:"Code"`
	Reason string `json:"Reason"`
}

// Sent is a message in a cell's outbox, fanned out to every recipient at
// send time with a per-recipient Result.
type Sent struct {
	ID             string          `json:"__id"`
	To             string          `json:"To,omitempty"`
	ToRelation     string          `json:"ToRelation,omitempty"`
	Type           Type            `json:"Type"`
	BoxName        string          `json:"_Box.Name,omitempty"`
	Schema         string          `json:"Schema,omitempty"`
	Title          string          `json:"Title"`
	Body           string          `json:"Body"`
	Priority       int             `json:"Priority"`
	RequestObjects []RequestObject `json:"RequestObjects,omitempty"`
	InReplyTo      string          `json:"InReplyTo,omitempty"`
	Results        []Result        `json:"Result,omitempty"`
	CreatedAt      time.Time       `json:"__published"`
	UpdatedAt      time.Time       `json:"__updated"`
}

// InitialStatus returns the status a freshly received message starts in.
func InitialStatus(t Type) Status {
	if t == TypeRequest {
		return StatusNone
	}

	return StatusUnread
}
