package graph

import (
	"regexp"

	"github.com/looplj/cellhub/internal/pkg/xuri"
)

// ClassKind distinguishes relation class URLs from role class URLs.
type ClassKind string

const (
	ClassRelation ClassKind = "relation"
	ClassRole     ClassKind = "role"
)

// ClassURL is the parsed form of a relation or role class URL:
// {schemaCellURL}/__relation/{box|__}/{name} (and the __role variant).
// The schema-cell component identifies the application cell that declares
// the class; the box segment is "__" for the schema-bound form.
type ClassURL struct {
	SchemaURL  string
	Kind       ClassKind
	BoxSegment string
	Name       string
}

// BoxName returns the box the URL scopes to, "" for the schema-bound "__"
// segment.
func (c ClassURL) BoxName() string {
	if c.BoxSegment == "__" {
		return ""
	}

	return c.BoxSegment
}

var (
	relationClassPattern = regexp.MustCompile(`^(.+?)/__relation/([^/]+)/([^/]+)/?$`)
	roleClassPattern     = regexp.MustCompile(`^(.+?)/__role/([^/]+)/([^/]+)/?$`)
)

// ParseClassURL parses u as a class URL of the given kind. The second
// return value is false when u does not have the class URL shape, in which
// case u should be treated as a plain name.
func ParseClassURL(u string, kind ClassKind) (ClassURL, bool) {
	pattern := relationClassPattern
	if kind == ClassRole {
		pattern = roleClassPattern
	}

	m := pattern.FindStringSubmatch(u)
	if m == nil {
		return ClassURL{}, false
	}

	return ClassURL{
		SchemaURL:  xuri.EnsureTrailingSlash(m[1]),
		Kind:       kind,
		BoxSegment: m[2],
		Name:       m[3],
	}, true
}
