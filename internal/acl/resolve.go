package acl

import (
	"strings"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/pkg/xuri"
)

func isAbsolute(href string) bool {
	return xuri.IsHTTP(href) || xuri.IsLocalUnit(href)
}

func ensureSlash(u string) string {
	return xuri.EnsureTrailingSlash(u)
}

// Normalize rewrites the base and every absolute href addressed at this
// unit into the localunit form, so stored documents survive a unit base-URL
// change.
func Normalize(a *Acl, unitBase string) {
	if a == nil {
		return
	}

	a.Base = xuri.ToLocalUnit(unitBase, a.Base)

	for i := range a.Aces {
		p := &a.Aces[i].Principal
		if p.Kind == PrincipalHref && xuri.IsHTTP(p.Href) {
			p.Href = xuri.ToLocalUnit(unitBase, p.Href)
		}
	}
}

// Resolve rewrites the base and hrefs back to the fully-qualified form.
// Callers that themselves speak localunit skip this.
func Resolve(a *Acl, unitBase string) {
	if a == nil {
		return
	}

	a.Base = xuri.ToHTTP(unitBase, a.Base)

	for i := range a.Aces {
		p := &a.Aces[i].Principal
		if p.Kind == PrincipalHref && xuri.IsLocalUnit(p.Href) {
			p.Href = xuri.ToHTTP(unitBase, p.Href)
		}
	}
}

// roleHrefBox extracts the box segment of a resolved role href of the form
// {cell}/__role/{box}/{name}. Returns "" for the cell-level "__" segment
// and ok=false when the href does not have the role URL shape.
func roleHrefBox(resolvedHref string) (string, bool) {
	idx := strings.Index(resolvedHref, "/__role/")
	if idx < 0 {
		return "", false
	}

	rest := strings.TrimPrefix(resolvedHref[idx:], "/__role/")

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}

	if parts[0] == "__" {
		return "", true
	}

	return parts[0], true
}

// CheckBoxConsistency validates an ACL being set on targetBox ("" for the
// cell root): every href that names a box must name the target box, and
// that box must exist. boxExists reports existence by name.
func CheckBoxConsistency(a *Acl, unitBase, targetBox string, boxExists func(name string) bool) error {
	if a == nil {
		return nil
	}

	for _, ace := range a.Aces {
		if ace.Principal.Kind != PrincipalHref {
			continue
		}

		resolved := xuri.ToHTTP(unitBase, a.ResolveHref(ace.Principal.Href))

		box, ok := roleHrefBox(resolved)
		if !ok || box == "" {
			continue
		}

		if targetBox != "" && box != targetBox {
			return errcode.AclBoxInconsistent.WithParams(resolved)
		}

		if !boxExists(box) {
			return errcode.AclBoxInconsistent.WithParams(resolved)
		}
	}

	return nil
}
