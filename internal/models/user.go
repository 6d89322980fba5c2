package models

import "time"

// AuthRealm tags where a user record originates from.
type AuthRealm string

const (
	RealmLocal AuthRealm = "local"
	RealmLDAP  AuthRealm = "ldap"
)

// User is a fully populated user record.
//
// EntityID is the store-assigned surrogate key and is set exactly once, at
// creation. UID is the external-facing identifier, unique across all users
// and immutable. Records are never physically deleted; Active=false is the
// deletion surrogate.
type User struct {
	EntityID  int64
	UID       string
	Name      string
	Email     string
	Active    bool
	Admin     bool
	Realm     AuthRealm
	CreatedAt time.Time
}
