package accounts

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"tienda/models"
)

// RegisterInput is the sign-up form as submitted.
type RegisterInput struct {
	Username        string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	Password        string
	PasswordConfirm string
}

// Register creates a User with its Profile and Client mirror in one
// transaction: either all three rows exist afterwards or none do. Validation
// failures come back as FieldErrors with nothing persisted.
func Register(db *sqlx.DB, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = NormalizeName(in.FirstName)
	in.LastName = NormalizeName(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	fe := FieldErrors{}
	if in.Username == "" {
		fe["username"] = MsgRequired
	}
	if in.FirstName == "" {
		fe["first_name"] = MsgRequired
	}
	if in.LastName == "" {
		fe["last_name"] = MsgRequired
	}
	if in.Email == "" || !validEmail(in.Email) {
		fe["email"] = MsgInvalidEmail
	}
	if len(in.Password) < MinPasswordLength {
		fe["password1"] = MsgPasswordTooShort
	}
	if in.Password != in.PasswordConfirm {
		fe["password2"] = MsgPasswordMismatch
	}

	if fe["email"] == "" {
		if taken, err := emailInUse(db, in.Email, 0); err != nil {
			return models.User{}, err
		} else if taken {
			fe["email"] = MsgEmailTaken
		}
	}
	if fe["username"] == "" {
		if taken, err := usernameInUse(db, in.Username); err != nil {
			return models.User{}, err
		} else if taken {
			fe["username"] = MsgUsernameTaken
		}
	}
	if len(fe) > 0 {
		return models.User{}, fe
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO users (username, email, password_hash, first_name, last_name, is_staff, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		in.Username, in.Email, string(hash), in.FirstName, in.LastName, time.Now().UTC())
	// Race backstop: the UNIQUE constraints catch concurrent duplicates that
	// slipped past the checks above.
	if isUniqueErr(err, "idx_users_email_ci") {
		return models.User{}, FieldErrors{"email": MsgEmailTaken}
	}
	if isUniqueErr(err, "users.username") {
		return models.User{}, FieldErrors{"username": MsgUsernameTaken}
	}
	if err != nil {
		return models.User{}, err
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	// Profile with the submitted contact details, then the Client mirror.
	// saveProfileTx reads the user and profile back from the transaction, so
	// the mirror is built from durably written values.
	if err := saveProfileTx(tx, uid, in.Phone, in.Address); err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	return UserByID(db, uid)
}

// Authenticate verifies a username/password pair and returns the matching
// user. Failures collapse to ErrInvalidLogin so the response does not reveal
// whether the username exists.
func Authenticate(db *sqlx.DB, username, password string) (models.User, error) {
	u, err := UserByUsername(db, strings.TrimSpace(username))
	if notFound(err) {
		return models.User{}, ErrInvalidLogin
	}
	if err != nil {
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidLogin
	}
	return u, nil
}
