package accounts_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tienda/accounts"
	"tienda/database/testdb"
	"tienda/models"
)

func mustRegister(t *testing.T, db *sqlx.DB, username, email string) models.User {
	t.Helper()
	u, err := accounts.Register(db, accounts.RegisterInput{
		Username:        username,
		FirstName:       "ana",
		LastName:        "gomez",
		Email:           email,
		Phone:           "555",
		Address:         "Main 1",
		Password:        "segura123",
		PasswordConfirm: "segura123",
	})
	require.NoError(t, err)
	return u
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func TestRegisterCreatesProfileAndClient(t *testing.T) {
	db := testdb.Open(t)

	u, err := accounts.Register(db, accounts.RegisterInput{
		Username:        "alicia",
		FirstName:       "  alicia  ",
		LastName:        "lópez",
		Email:           "A@x.com",
		Phone:           "555",
		Address:         "Main 1",
		Password:        "segura123",
		PasswordConfirm: "segura123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, "López", u.LastName)
	assert.Equal(t, "a@x.com", u.Email, "email is stored lowercased")
	assert.NotEqual(t, "segura123", u.PasswordHash)

	p, err := accounts.ProfileByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", p.Phone)
	assert.Equal(t, "Main 1", p.Address)

	c, err := accounts.ClientByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", c.FirstName)
	assert.Equal(t, "López", c.LastName)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, "555", c.Phone)
	assert.Equal(t, "Main 1", c.Address)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	db := testdb.Open(t)
	mustRegister(t, db, "alicia", "a@x.com")

	_, err := accounts.Register(db, accounts.RegisterInput{
		Username:        "otra",
		FirstName:       "Otra",
		LastName:        "Persona",
		Email:           "A@X.COM",
		Password:        "segura123",
		PasswordConfirm: "segura123",
	})
	var fe accounts.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, accounts.MsgEmailTaken, fe["email"])

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(1) FROM users`), "no partial state on rejection")
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	db := testdb.Open(t)
	mustRegister(t, db, "alicia", "a@x.com")

	_, err := accounts.Register(db, accounts.RegisterInput{
		Username:        "alicia",
		FirstName:       "Otra",
		LastName:        "Persona",
		Email:           "otra@x.com",
		Password:        "segura123",
		PasswordConfirm: "segura123",
	})
	var fe accounts.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, accounts.MsgUsernameTaken, fe["username"])
}

func TestRegisterPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		field    string
		message  string
	}{
		{"too short", "corta", "corta", "password1", accounts.MsgPasswordTooShort},
		{"mismatch", "segura123", "segura124", "password2", accounts.MsgPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testdb.Open(t)
			_, err := accounts.Register(db, accounts.RegisterInput{
				Username:        "alicia",
				FirstName:       "Alicia",
				LastName:        "López",
				Email:           "a@x.com",
				Password:        tt.password,
				PasswordConfirm: tt.confirm,
			})
			var fe accounts.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.message, fe[tt.field])
			assert.Zero(t, countRows(t, db, `SELECT COUNT(1) FROM users`))
		})
	}
}

func TestEnsureProfileIdempotent(t *testing.T) {
	db := testdb.Open(t)
	u := mustRegister(t, db, "alicia", "a@x.com")

	// Registration already created the profile; two more ensure calls must
	// neither duplicate it nor clobber its contents.
	require.NoError(t, accounts.EnsureProfile(db, u.ID))
	require.NoError(t, accounts.EnsureProfile(db, u.ID))

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(1) FROM profiles WHERE user_id = ?`, u.ID))
	p, err := accounts.ProfileByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", p.Phone)
}

func TestSaveProfilePropagatesToClient(t *testing.T) {
	db := testdb.Open(t)
	u := mustRegister(t, db, "alicia", "a@x.com")

	require.NoError(t, accounts.SaveProfile(db, u.ID, "777", "Otra Calle 9"))

	c, err := accounts.ClientByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "777", c.Phone)
	assert.Equal(t, "Otra Calle 9", c.Address)
	assert.Equal(t, "Ana", c.FirstName, "user fields stay mirrored")

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(1) FROM clients WHERE user_id = ?`, u.ID),
		"upsert must not create a second client")
}

func TestUpdateIdentitySyncsEverything(t *testing.T) {
	db := testdb.Open(t)
	u := mustRegister(t, db, "alicia", "a@x.com")

	err := accounts.UpdateIdentity(db, u.ID, accounts.IdentityEdit{
		FirstName: "ana maría",
		LastName:  "gómez",
		Email:     "Nueva@x.com",
		Phone:     "999",
		Address:   "Calle 123",
	})
	require.NoError(t, err)

	fresh, err := accounts.UserByID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", fresh.FirstName)
	assert.Equal(t, "nueva@x.com", fresh.Email)

	c, err := accounts.ClientByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", c.FirstName)
	assert.Equal(t, "Gómez", c.LastName)
	assert.Equal(t, "nueva@x.com", c.Email)
	assert.Equal(t, "999", c.Phone)
	assert.Equal(t, "Calle 123", c.Address)
}

func TestUpdateIdentityAllOrNothing(t *testing.T) {
	db := testdb.Open(t)
	u := mustRegister(t, db, "alicia", "a@x.com")

	err := accounts.UpdateIdentity(db, u.ID, accounts.IdentityEdit{
		FirstName: "Cambiada",
		LastName:  "Cambiada",
		Email:     "no-es-un-correo",
		Phone:     "000",
		Address:   "Nada",
	})
	var fe accounts.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, accounts.MsgInvalidEmail, fe["email"])

	// Nothing may have been persisted, neither user nor profile nor client.
	fresh, err := accounts.UserByID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", fresh.FirstName)

	p, err := accounts.ProfileByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", p.Phone)

	c, err := accounts.ClientByUserID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", c.Phone)
}

func TestUpdateIdentityRejectsTakenEmail(t *testing.T) {
	db := testdb.Open(t)
	u := mustRegister(t, db, "alicia", "a@x.com")
	mustRegister(t, db, "berta", "b@x.com")

	err := accounts.UpdateIdentity(db, u.ID, accounts.IdentityEdit{
		FirstName: "Ana", LastName: "Gomez", Email: "B@x.com",
	})
	var fe accounts.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, accounts.MsgEmailTaken, fe["email"])
}

func TestAuthenticate(t *testing.T) {
	db := testdb.Open(t)
	mustRegister(t, db, "alicia", "a@x.com")

	u, err := accounts.Authenticate(db, "alicia", "segura123")
	require.NoError(t, err)
	assert.Equal(t, "alicia", u.Username)

	_, err = accounts.Authenticate(db, "alicia", "incorrecta")
	assert.ErrorIs(t, err, accounts.ErrInvalidLogin)

	_, err = accounts.Authenticate(db, "nadie", "segura123")
	assert.ErrorIs(t, err, accounts.ErrInvalidLogin)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  ana   gomez  ", "Ana Gomez"},
		{"ANA GOMEZ", "Ana Gomez"},
		{"ana", "Ana"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, accounts.NormalizeName(tt.in), "input %q", tt.in)
	}
}
