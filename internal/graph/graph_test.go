package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleURL(t *testing.T) {
	cellURL := "https://unit.example/cell1/"

	global := Role{Name: "admin"}
	assert.Equal(t, "https://unit.example/cell1/__role/__/admin", global.URL(cellURL))

	scoped := Role{BoxName: "box1", Name: "viewer"}
	assert.Equal(t, "https://unit.example/cell1/__role/box1/viewer", scoped.URL(cellURL))
}

func TestRelationURL(t *testing.T) {
	cellURL := "https://unit.example/cell1"

	rel := Relation{Name: "friends"}
	assert.Equal(t, "https://unit.example/cell1/__relation/__/friends", rel.URL(cellURL))
}

func TestParseClassURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		kind    ClassKind
		want    ClassURL
		matches bool
	}{
		{
			name: "schema-bound relation",
			url:  "https://app.example/appcell/__relation/__/friends",
			kind: ClassRelation,
			want: ClassURL{
				SchemaURL:  "https://app.example/appcell/",
				Kind:       ClassRelation,
				BoxSegment: "__",
				Name:       "friends",
			},
			matches: true,
		},
		{
			name: "trailing slash",
			url:  "https://app.example/appcell/__relation/__/friends/",
			kind: ClassRelation,
			want: ClassURL{
				SchemaURL:  "https://app.example/appcell/",
				Kind:       ClassRelation,
				BoxSegment: "__",
				Name:       "friends",
			},
			matches: true,
		},
		{
			name: "box-bound role",
			url:  "https://app.example/appcell/__role/box1/editor",
			kind: ClassRole,
			want: ClassURL{
				SchemaURL:  "https://app.example/appcell/",
				Kind:       ClassRole,
				BoxSegment: "box1",
				Name:       "editor",
			},
			matches: true,
		},
		{
			name:    "plain name is not a class URL",
			url:     "friends",
			kind:    ClassRelation,
			matches: false,
		},
		{
			name:    "role URL does not parse as relation",
			url:     "https://app.example/appcell/__role/__/editor",
			kind:    ClassRelation,
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseClassURL(tt.url, tt.kind)
			require.Equal(t, tt.matches, ok)

			if tt.matches {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
