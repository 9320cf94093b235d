package acl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/privilege"
)

const unitBase = "https://unit.example"

func TestParseXML(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<D:acl xmlns:D="DAV:" xmlns:p="urn:x-personium:xmlns"
       xml:base="https://unit.example/cell1/__role/__/"
       p:requireSchemaAuthz="public">
  <D:ace>
    <D:principal><D:href>role4</D:href></D:principal>
    <D:grant>
      <D:privilege><p:auth/></D:privilege>
      <D:privilege><p:auth-read/></D:privilege>
      <D:privilege><p:read/></D:privilege>
    </D:grant>
  </D:ace>
  <D:ace>
    <D:principal><D:all/></D:principal>
    <D:grant>
      <D:privilege><p:read/></D:privilege>
    </D:grant>
  </D:ace>
</D:acl>`)

	a, err := ParseXML(body)
	require.NoError(t, err)
	require.Equal(t, "https://unit.example/cell1/__role/__/", a.Base)
	require.Equal(t, SchemaAuthzPublic, a.RequireSchemaAuthz)
	require.Len(t, a.Aces, 2)

	require.Equal(t, PrincipalHref, a.Aces[0].Principal.Kind)
	require.Equal(t, "role4", a.Aces[0].Principal.Href)
	require.Equal(t,
		[]privilege.Privilege{privilege.Auth, privilege.AuthRead, privilege.Read},
		a.Aces[0].Grant,
	)

	require.Equal(t, PrincipalAll, a.Aces[1].Principal.Kind)
}

func TestParseXML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *errcode.Error
	}{
		{
			name: "principal without child",
			body: `<D:acl xmlns:D="DAV:"><D:ace><D:principal/><D:grant/></D:ace></D:acl>`,
			want: errcode.PrincipalNeitherHrefNorAll,
		},
		{
			name: "principal with unknown child",
			body: `<D:acl xmlns:D="DAV:"><D:ace><D:principal><D:self/></D:principal><D:grant/></D:ace></D:acl>`,
			want: errcode.PrincipalNeitherHrefNorAll,
		},
		{
			name: "unknown privilege",
			body: `<D:acl xmlns:D="DAV:" xmlns:p="urn:x-personium:xmlns"><D:ace>
				<D:principal><D:all/></D:principal>
				<D:grant><D:privilege><p:fly/></D:privilege></D:grant>
			</D:ace></D:acl>`,
			want: errcode.PrivilegeUnknown,
		},
		{
			name: "unknown requireSchemaAuthz",
			body: `<D:acl xmlns:D="DAV:" xmlns:p="urn:x-personium:xmlns" p:requireSchemaAuthz="secret"/>`,
			want: errcode.AclMalformed,
		},
		{
			name: "not xml",
			body: `{"acl": true}`,
			want: errcode.AclMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXML([]byte(tt.body))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMarshalXML_RoundTrip(t *testing.T) {
	in := &Acl{
		Base:               "https://unit.example/cell1/__role/__/",
		RequireSchemaAuthz: SchemaAuthzConfidential,
		Aces: []Ace{
			{
				Principal: Principal{Kind: PrincipalHref, Href: "role4"},
				Grant:     []privilege.Privilege{privilege.Auth, privilege.AuthRead, privilege.Read},
			},
			{
				Principal: Principal{Kind: PrincipalHref, Href: "role5"},
				Grant:     []privilege.Privilege{privilege.Root},
			},
		},
	}

	body, err := MarshalXML(in)
	require.NoError(t, err)

	out, err := ParseXML(body)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalXML_RoundTripAllPrincipal(t *testing.T) {
	in := &Acl{
		Aces: []Ace{
			{
				Principal: Principal{Kind: PrincipalAll},
				Grant:     []privilege.Privilege{privilege.Read},
			},
		},
	}

	body, err := MarshalXML(in)
	require.NoError(t, err)

	out, err := ParseXML(body)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluatorDecide(t *testing.T) {
	role4 := "https://unit.example/cell1/__role/__/role4"
	role5 := "https://unit.example/cell1/__role/__/role5"

	cellAcl := &Acl{
		Base: "https://unit.example/cell1/__role/__/",
		Aces: []Ace{
			{
				Principal: Principal{Kind: PrincipalHref, Href: "role4"},
				Grant:     []privilege.Privilege{privilege.AuthRead},
			},
			{
				Principal: Principal{Kind: PrincipalHref, Href: "role5"},
				Grant:     []privilege.Privilege{privilege.Root},
			},
		},
	}

	ev := NewEvaluator(unitBase)

	tests := []struct {
		name     string
		chain    Chain
		required privilege.Privilege
		roles    []string
		want     bool
	}{
		{
			name:     "granted privilege",
			chain:    Chain{Cell: cellAcl},
			required: privilege.AuthRead,
			roles:    []string{role4},
			want:     true,
		},
		{
			name:     "read variant does not imply base",
			chain:    Chain{Cell: cellAcl},
			required: privilege.Auth,
			roles:    []string{role4},
			want:     false,
		},
		{
			name:     "root implies everything",
			chain:    Chain{Cell: cellAcl},
			required: privilege.Write,
			roles:    []string{role5},
			want:     true,
		},
		{
			name:     "localunit role form matches",
			chain:    Chain{Cell: cellAcl},
			required: privilege.AuthRead,
			roles:    []string{"personium-localunit:/cell1/__role/__/role4"},
			want:     true,
		},
		{
			name:     "no matching role",
			chain:    Chain{Cell: cellAcl},
			required: privilege.Read,
			roles:    []string{"https://unit.example/cell1/__role/__/other"},
			want:     false,
		},
		{
			name:     "no acl",
			chain:    Chain{},
			required: privilege.Read,
			roles:    []string{role4},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ev.Decide(tt.chain, tt.required, tt.roles))
		})
	}
}

func TestEvaluatorDecide_AllPrincipal(t *testing.T) {
	a := &Acl{
		Aces: []Ace{
			{Principal: Principal{Kind: PrincipalAll}, Grant: []privilege.Privilege{privilege.Read}},
		},
	}

	ev := NewEvaluator(unitBase)

	require.True(t, ev.Decide(Chain{Cell: a}, privilege.Read, nil))
	require.False(t, ev.Decide(Chain{Cell: a}, privilege.Write, nil))
}

func TestEvaluatorDecide_BoxShadowing(t *testing.T) {
	role := "https://unit.example/cell1/__role/box1/reader"

	cellAcl := &Acl{
		Aces: []Ace{
			{Principal: Principal{Kind: PrincipalAll}, Grant: []privilege.Privilege{privilege.Read, privilege.Write}},
		},
	}
	boxAcl := &Acl{
		Aces: []Ace{
			{Principal: Principal{Kind: PrincipalHref, Href: role}, Grant: []privilege.Privilege{privilege.Read}},
		},
	}

	ev := NewEvaluator(unitBase)

	// The cell ACL grants write to everyone, but a box with ACEs is
	// governed by its own ACL alone.
	require.False(t, ev.Decide(Chain{Cell: cellAcl, Box: boxAcl}, privilege.Write, []string{role}))
	require.True(t, ev.Decide(Chain{Cell: cellAcl, Box: boxAcl}, privilege.Read, []string{role}))

	// An empty box ACL falls through to the cell.
	require.True(t, ev.Decide(Chain{Cell: cellAcl, Box: &Acl{}}, privilege.Write, nil))
}

func TestNormalizeResolve(t *testing.T) {
	a := &Acl{
		Base: "https://unit.example/cell1/__role/__/",
		Aces: []Ace{
			{Principal: Principal{Kind: PrincipalHref, Href: "https://unit.example/cell1/__role/__/role4"}},
			{Principal: Principal{Kind: PrincipalHref, Href: "https://other.example/cell9/__role/__/guest"}},
			{Principal: Principal{Kind: PrincipalAll}},
		},
	}

	Normalize(a, unitBase)
	require.Equal(t, "personium-localunit:/cell1/__role/__/", a.Base)
	require.Equal(t, "personium-localunit:/cell1/__role/__/role4", a.Aces[0].Principal.Href)
	require.Equal(t, "https://other.example/cell9/__role/__/guest", a.Aces[1].Principal.Href)

	Resolve(a, unitBase)
	require.Equal(t, "https://unit.example/cell1/__role/__/", a.Base)
	require.Equal(t, "https://unit.example/cell1/__role/__/role4", a.Aces[0].Principal.Href)
}

func TestCheckBoxConsistency(t *testing.T) {
	boxExists := func(name string) bool { return name == "box1" }

	boxScoped := func(box string) *Acl {
		return &Acl{
			Aces: []Ace{{
				Principal: Principal{
					Kind: PrincipalHref,
					Href: "https://unit.example/cell1/__role/" + box + "/reader",
				},
			}},
		}
	}

	require.NoError(t, CheckBoxConsistency(boxScoped("box1"), unitBase, "box1", boxExists))
	require.NoError(t, CheckBoxConsistency(boxScoped("box1"), unitBase, "", boxExists))
	require.NoError(t, CheckBoxConsistency(boxScoped("__"), unitBase, "box1", boxExists))

	err := CheckBoxConsistency(boxScoped("box2"), unitBase, "box1", boxExists)
	require.ErrorIs(t, err, errcode.AclBoxInconsistent)

	err = CheckBoxConsistency(boxScoped("missing"), unitBase, "", boxExists)
	require.ErrorIs(t, err, errcode.AclBoxInconsistent)
}
