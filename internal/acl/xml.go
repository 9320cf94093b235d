package acl

import (
	"bytes"
	"encoding/xml"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/privilege"
)

// XML namespaces of the ACL document.
const (
	NSDav      = "DAV:"
	NSPlatform = "urn:x-personium:xmlns"
)

type xmlAcl struct {
	XMLName            xml.Name `xml:"DAV: acl"`
	Base               string   `xml:"base,attr"`
	RequireSchemaAuthz string   `xml:"requireSchemaAuthz,attr"`
	Aces               []xmlAce `xml:"ace"`
}

type xmlAce struct {
	Principal xmlPrincipal `xml:"principal"`
	Grant     xmlGrant     `xml:"grant"`
}

type xmlPrincipal struct {
	Children []xmlElement `xml:",any"`
}

type xmlGrant struct {
	Privileges []xmlPrivilege `xml:"privilege"`
}

type xmlPrivilege struct {
	Children []xmlElement `xml:",any"`
}

type xmlElement struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

// ParseXML decodes and validates an ACL document body.
//
// A principal must contain exactly one of all or href; anything else fails
// with a structured error naming the offending element. Privilege tag local
// names must be known privileges.
func ParseXML(body []byte) (*Acl, error) {
	var doc xmlAcl
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errcode.AclMalformed.WithParams(err.Error())
	}

	out := &Acl{
		Base:               doc.Base,
		RequireSchemaAuthz: RequireSchemaAuthz(doc.RequireSchemaAuthz),
	}

	if !out.RequireSchemaAuthz.Valid() {
		return nil, errcode.AclMalformed.WithParams("requireSchemaAuthz=" + doc.RequireSchemaAuthz)
	}

	for _, ace := range doc.Aces {
		principal, err := parsePrincipal(ace.Principal)
		if err != nil {
			return nil, err
		}

		var grant []privilege.Privilege

		for _, priv := range ace.Grant.Privileges {
			if len(priv.Children) != 1 {
				return nil, errcode.AclMalformed.WithParams("privilege must contain exactly one element")
			}

			p := privilege.Privilege(priv.Children[0].XMLName.Local)
			if !privilege.Known(p) {
				return nil, errcode.PrivilegeUnknown.WithParams(string(p))
			}

			grant = append(grant, p)
		}

		out.Aces = append(out.Aces, Ace{Principal: principal, Grant: grant})
	}

	return out, nil
}

func parsePrincipal(p xmlPrincipal) (Principal, error) {
	if len(p.Children) != 1 {
		return Principal{}, errcode.PrincipalNeitherHrefNorAll.WithParams("principal")
	}

	child := p.Children[0]

	switch child.XMLName.Local {
	case "all":
		return Principal{Kind: PrincipalAll}, nil
	case "href":
		return Principal{Kind: PrincipalHref, Href: child.Content}, nil
	default:
		return Principal{}, errcode.PrincipalNeitherHrefNorAll.WithParams(child.XMLName.Local)
	}
}

// Marshal output uses explicit prefixes so the document round-trips through
// namespace-aware parsers.
type xmlAclOut struct {
	XMLName            xml.Name         `xml:"D:acl"`
	XmlnsD             string           `xml:"xmlns:D,attr"`
	XmlnsP             string           `xml:"xmlns:p,attr"`
	Base               string           `xml:"xml:base,attr,omitempty"`
	RequireSchemaAuthz string           `xml:"p:requireSchemaAuthz,attr,omitempty"`
	Aces               []xmlAceOut      `xml:"D:ace"`
}

type xmlAceOut struct {
	Principal xmlPrincipalOut `xml:"D:principal"`
	Grant     xmlGrantOut     `xml:"D:grant"`
}

type xmlPrincipalOut struct {
	All  *struct{} `xml:"D:all,omitempty"`
	Href string    `xml:"D:href,omitempty"`
}

type xmlGrantOut struct {
	Privileges []xmlPrivilegeOut `xml:"D:privilege"`
}

type xmlPrivilegeOut struct {
	Name string `xml:",innerxml"`
}

// MarshalXML encodes the ACL as a document body.
func MarshalXML(a *Acl) ([]byte, error) {
	doc := xmlAclOut{
		XmlnsD:             NSDav,
		XmlnsP:             NSPlatform,
		Base:               a.Base,
		RequireSchemaAuthz: string(a.RequireSchemaAuthz),
	}

	for _, ace := range a.Aces {
		out := xmlAceOut{}

		switch ace.Principal.Kind {
		case PrincipalAll:
			out.Principal.All = &struct{}{}
		case PrincipalHref:
			out.Principal.Href = ace.Principal.Href
		}

		for _, p := range ace.Grant {
			out.Grant.Privileges = append(out.Grant.Privileges, xmlPrivilegeOut{
				Name: "<p:" + string(p) + "/>",
			})
		}

		doc.Aces = append(doc.Aces, out)
	}

	var buf bytes.Buffer

	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
