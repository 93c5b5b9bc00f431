package storage

import "time"

type Event struct {
	ID                   int64     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Description          *string   `db:"description" json:"description"`
	Location             *string   `db:"location" json:"location"`
	StartTime            time.Time `db:"start_time" json:"start_time"`
	BufferedStartTime    time.Time `db:"buffered_start_time" json:"buffered_start_time"`
	EndTime              time.Time `db:"end_time" json:"end_time"`
	BufferedEndTime      time.Time `db:"buffered_end_time" json:"buffered_end_time"`
	RegistrationRequired bool      `db:"registration_required" json:"registration_required"`
	PaymentRequired      bool      `db:"payment_required" json:"payment_required"`
	ImageID              *string   `db:"image_id" json:"image_id"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

type Role string

const (
	RoleHacker     Role = "hacker"
	RoleSponsor    Role = "sponsor"
	RoleMentor     Role = "mentor"
	RoleVolunteer  Role = "volunteer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
	RoleDefault    Role = "default"
	RoleDeclined   Role = "declined"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHacker, RoleSponsor, RoleMentor, RoleVolunteer, RoleAdmin, RoleSuperadmin, RoleDefault, RoleDeclined:
		return true
	}
	return false
}

// Profile mirrors the auth user's profile row. ID is the auth user id.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     *string   `db:"email" json:"email"`
	FirstName *string   `db:"first_name" json:"first_name"`
	LastName  *string   `db:"last_name" json:"last_name"`
	Role      Role      `db:"role" json:"role"`
	NfcID     *string   `db:"nfc_id" json:"nfc_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Attendance struct {
	ID          int64      `db:"id" json:"id"`
	EventID     int64      `db:"event_id" json:"event_id"`
	ProfileID   string     `db:"profile_id" json:"profile_id"`
	CheckedIn   bool       `db:"checked_in" json:"checked_in"`
	CheckedInAt *time.Time `db:"checked_in_at" json:"checked_in_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// dbTime normalizes timestamps before they reach the database. SQLite
// compares timestamps as text, so every stored value must share one layout.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
