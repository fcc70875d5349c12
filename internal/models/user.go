package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type TeamMember struct {
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email" bson:"email"`
	College  string `json:"college,omitempty" bson:"college,omitempty"`
	IsLeader bool   `json:"is_leader" bson:"is_leader"`
}

// User is a registered team. Participations are embedded so every lifecycle
// change is a single-document write guarded by Version.
type User struct {
	ID             string          `json:"id" bson:"_id"`
	Username       string          `json:"username" bson:"username"`
	TeamName       string          `json:"team_name" bson:"team_name"`
	Email          string          `json:"email" bson:"email"`
	Password       string          `json:"-" bson:"password"`
	Role           string          `json:"role" bson:"role"`
	IsActive       bool            `json:"is_active" bson:"is_active"`
	TeamMembers    []TeamMember    `json:"team_members" bson:"team_members"`
	Participations []Participation `json:"participations" bson:"participations"`
	Version        int64           `json:"-" bson:"version"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ActiveParticipation returns the user's single active participation, or nil.
func (u *User) ActiveParticipation() *Participation {
	for i := range u.Participations {
		if u.Participations[i].Active() {
			return &u.Participations[i]
		}
	}
	return nil
}

// Participation returns the participation for hackathonID, or nil.
func (u *User) Participation(hackathonID string) *Participation {
	for i := range u.Participations {
		if u.Participations[i].HackathonID == hackathonID {
			return &u.Participations[i]
		}
	}
	return nil
}

// StartParticipation supersedes any active participation and appends p.
func (u *User) StartParticipation(p Participation, at time.Time) {
	for i := range u.Participations {
		if u.Participations[i].Active() {
			_ = u.Participations[i].Close(ReasonSuperseded, at)
		}
	}
	u.Participations = append(u.Participations, p)
}

// MemberEmails lists team member emails, falling back to the account email
// for teams registered without members.
func (u *User) MemberEmails() []string {
	emails := make([]string, 0, len(u.TeamMembers))
	for _, m := range u.TeamMembers {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	if len(emails) == 0 && u.Email != "" {
		emails = append(emails, u.Email)
	}
	return emails
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	cp := *u
	if u.TeamMembers != nil {
		cp.TeamMembers = append([]TeamMember(nil), u.TeamMembers...)
	}
	if u.Participations != nil {
		cp.Participations = make([]Participation, len(u.Participations))
		for i, p := range u.Participations {
			cp.Participations[i] = p.clone()
		}
	}
	return &cp
}

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// SystemPrincipal is used by background jobs.
var SystemPrincipal = Principal{UserID: "system", Username: "system", Role: RoleAdmin}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanActFor reports whether the caller may act on behalf of userID.
func (p Principal) CanActFor(userID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == userID)
}
