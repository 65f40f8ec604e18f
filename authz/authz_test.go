package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tienda/authz"
	"tienda/models"
)

var (
	anon  *models.User
	staff = &models.User{ID: 1, Username: "jefa", IsStaff: true}
	ana   = &models.User{ID: 2, Username: "anag", FirstName: "Ana", LastName: "Gomez"}
	otro  = &models.User{ID: 3, Username: "otro", FirstName: "Otro", LastName: "Usuario"}
)

func TestRequireLogin(t *testing.T) {
	d := authz.Evaluate(anon, authz.RequireLogin)
	assert.False(t, d.Allowed)
	assert.True(t, d.ToLogin)

	assert.True(t, authz.Evaluate(ana, authz.RequireLogin).Allowed)
}

func TestRequireStaff(t *testing.T) {
	tests := []struct {
		name    string
		user    *models.User
		allowed bool
		toLogin bool
	}{
		{"anonymous goes to login", anon, false, true},
		{"non-staff denied with flash", ana, false, false},
		{"staff allowed", staff, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := authz.Evaluate(tt.user, authz.RequireLogin, authz.RequireStaff)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.toLogin, d.ToLogin)
			if !tt.allowed && !tt.toLogin {
				assert.Equal(t, authz.MsgNoPermission, d.Message)
			}
		})
	}
}

func TestOwnerOrStaff(t *testing.T) {
	pred := authz.OwnerOrStaff("Ana Gomez")

	assert.True(t, authz.Evaluate(staff, authz.RequireLogin, pred).Allowed, "staff may edit any post")
	assert.True(t, authz.Evaluate(ana, authz.RequireLogin, pred).Allowed, "display name matches the author label")

	d := authz.Evaluate(otro, authz.RequireLogin, pred)
	assert.False(t, d.Allowed)
	assert.Equal(t, authz.MsgNoPermission, d.Message)

	assert.True(t, authz.Evaluate(staff, authz.RequireLogin, pred).Allowed)
}

func TestOwnerFallsBackToUsername(t *testing.T) {
	noNames := &models.User{ID: 4, Username: "anag"}
	assert.True(t, authz.Evaluate(noNames, authz.RequireLogin, authz.OwnerOrStaff("anag")).Allowed)
	assert.False(t, authz.Evaluate(noNames, authz.RequireLogin, authz.OwnerOrStaff("Otra Persona")).Allowed)
}

func TestChainStopsAtFirstDeny(t *testing.T) {
	// An anonymous user must be sent to login, never reaching the staff
	// check that would flash a denial instead.
	d := authz.Evaluate(anon, authz.RequireLogin, authz.RequireStaff)
	assert.True(t, d.ToLogin)
	assert.Empty(t, d.Message)
}
