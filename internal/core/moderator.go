package core

// ModeratorRole determines how many reviews a moderator may hold at once.
type ModeratorRole string

const (
	RoleJunior ModeratorRole = "junior"
	RoleSenior ModeratorRole = "senior"
	RoleLead   ModeratorRole = "lead"
)

// Capacity returns the concurrent-review limit for the role. Unrecognized
// roles get the junior limit rather than an unbounded one.
func (r ModeratorRole) Capacity() int {
	switch r {
	case RoleJunior:
		return 3
	case RoleSenior:
		return 5
	case RoleLead:
		return 7
	}
	return 3
}

// ModeratorStatus marks whether a moderator may receive work at all.
type ModeratorStatus string

const (
	ModeratorActive   ModeratorStatus = "active"
	ModeratorInactive ModeratorStatus = "inactive"
)

// ModeratorProfile is the capacity and identity record for a human reviewer.
// Profiles are provisioned and retired by an external account-management
// collaborator; this core only reads them. The current workload is never
// stored here, it is derived from live review counts on every check.
type ModeratorProfile struct {
	ID     string          `json:"moderatorId" db:"id"`
	Status ModeratorStatus `json:"status" db:"status"`
	Role   ModeratorRole   `json:"role" db:"role"`
}
