// Package authz gates CRUD handlers with an ordered chain of predicates.
// Each predicate inspects the resolved session user and returns a tagged
// decision; the first non-allow decision wins. RequireLogin must come first
// in any chain, the later predicates assume an identified user.
package authz

import "tienda/models"

// MsgNoPermission is flashed on a denied staff/ownership check. Deliberately
// generic so an unauthorized actor learns nothing about the resource.
const MsgNoPermission = "No tienes permiso para realizar esta acción."

// Decision is the outcome of one predicate.
type Decision struct {
	Allowed bool

	// ToLogin requests a redirect to the login page preserving the
	// originally requested path; otherwise the deny redirects home with
	// Message flashed.
	ToLogin bool
	Message string
}

// Allow grants access.
var Allow = Decision{Allowed: true}

// DenyLogin sends the visitor to the login page.
func DenyLogin() Decision {
	return Decision{ToLogin: true}
}

// DenyFlash redirects home with a flashed denial message.
func DenyFlash(msg string) Decision {
	return Decision{Message: msg}
}

// Predicate decides whether the current user may proceed. A nil user is an
// anonymous request.
type Predicate func(u *models.User) Decision

// Evaluate runs the predicates left to right and returns the first deny, or
// Allow when every gate passes.
func Evaluate(u *models.User, preds ...Predicate) Decision {
	for _, p := range preds {
		if d := p(u); !d.Allowed {
			return d
		}
	}
	return Allow
}

// RequireLogin denies anonymous requests.
func RequireLogin(u *models.User) Decision {
	if u == nil {
		return DenyLogin()
	}
	return Allow
}

// RequireStaff denies users without the staff flag.
func RequireStaff(u *models.User) Decision {
	if u == nil {
		return DenyLogin()
	}
	if !u.IsStaff {
		return DenyFlash(MsgNoPermission)
	}
	return Allow
}

// OwnerOrStaff allows staff, or the user whose display name matches the
// resource's author label.
func OwnerOrStaff(owner string) Predicate {
	return func(u *models.User) Decision {
		if u == nil {
			return DenyLogin()
		}
		if u.IsStaff || owner == u.DisplayName() {
			return Allow
		}
		return DenyFlash(MsgNoPermission)
	}
}
