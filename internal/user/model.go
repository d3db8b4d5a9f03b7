package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is the durable identity record. PasswordHash is the bcrypt digest
// of the registration password; the raw value is never stored. Token is
// the credential issued at registration, kept for auditing only. Request
// authentication never consults it.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Phones       []Phone
	Created      time.Time
	Modified     time.Time
	LastLogin    time.Time
	Token        string
	IsActive     bool
}

// Phone is owned by exactly one user and is deleted with it.
type Phone struct {
	ID          uuid.UUID
	Number      string
	CityCode    string
	CountryCode string
}
