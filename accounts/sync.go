package accounts

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// The Client mirror invariant: whenever a User or its Profile is saved, the
// linked Client row must end up holding the just-saved name/email/phone/
// address. SyncClient is the single propagation point; call sites save the
// Profile and let it run instead of writing mirrored fields themselves.

// EnsureProfile guarantees exactly one profile row exists for the user.
// Idempotent: a second call is a no-op, it never clobbers existing phone or
// address values.
func EnsureProfile(q sqlx.Ext, userID int64) error {
	_, err := q.Exec(
		`INSERT INTO profiles (user_id, phone, address) VALUES (?, '', '')
		 ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}

// SyncClient upserts the client row linked to the user, overwriting its
// mirrored fields from the user and profile rows as currently stored. It
// reads both from the database rather than from caller state so a stale
// in-memory copy can never write back pre-edit values.
func SyncClient(q sqlx.Ext, userID int64) error {
	u, err := UserByID(q, userID)
	if err != nil {
		return err
	}
	p, err := ProfileByUserID(q, userID)
	if err != nil && !notFound(err) {
		return err
	}

	_, err = q.Exec(
		`INSERT INTO clients (user_id, first_name, last_name, email, phone, address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     first_name = excluded.first_name,
		     last_name  = excluded.last_name,
		     email      = excluded.email,
		     phone      = excluded.phone,
		     address    = excluded.address`,
		userID, u.FirstName, u.LastName, u.Email, p.Phone, p.Address, time.Now().UTC())
	return err
}

// SaveProfile upserts the user's phone and address and propagates the change
// to the client mirror, all in one transaction.
func SaveProfile(db *sqlx.DB, userID int64, phone, address string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveProfileTx(tx, userID, phone, address); err != nil {
		return err
	}
	return tx.Commit()
}

func saveProfileTx(tx *sqlx.Tx, userID int64, phone, address string) error {
	_, err := tx.Exec(
		`INSERT INTO profiles (user_id, phone, address) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     phone   = excluded.phone,
		     address = excluded.address`,
		userID, phone, address)
	if err != nil {
		return err
	}
	return SyncClient(tx, userID)
}

// IdentityEdit carries the two self-service profile forms: first/last/email
// live on User, phone/address on Profile. Both validate together before
// either side persists.
type IdentityEdit struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

// UpdateIdentity applies a profile self-edit. Validation is all-or-nothing:
// a bad email leaves user, profile and client untouched. On success the
// client mirror is rewritten in the same transaction.
func UpdateIdentity(db *sqlx.DB, userID int64, edit IdentityEdit) error {
	edit.FirstName = NormalizeName(edit.FirstName)
	edit.LastName = NormalizeName(edit.LastName)
	edit.Email = NormalizeEmail(edit.Email)

	fe := FieldErrors{}
	if edit.Email == "" || !validEmail(edit.Email) {
		fe["email"] = MsgInvalidEmail
	} else if taken, err := emailInUse(db, edit.Email, userID); err != nil {
		return err
	} else if taken {
		fe["email"] = MsgEmailTaken
	}
	if len(fe) > 0 {
		return fe
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		edit.FirstName, edit.LastName, edit.Email, userID)
	if isUniqueErr(err, "idx_users_email_ci") {
		return FieldErrors{"email": MsgEmailTaken}
	}
	if err != nil {
		return err
	}

	if err := saveProfileTx(tx, userID, edit.Phone, edit.Address); err != nil {
		return err
	}
	return tx.Commit()
}
