package rbac

type Role string
type Action string

const (
	RoleTBD         Role = "TBD"
	RoleContributor Role = "CONTRIBUTOR"
	RoleStaff       Role = "STAFF"
	RoleAdmin       Role = "ADMIN"
)

const (
	ActionRead           Action = "read"
	ActionSubmitPitch    Action = "submit_pitch"
	ActionClaim          Action = "claim"
	ActionReviewPitches  Action = "review_pitches"
	ActionReviewClaims   Action = "review_claims"
	ActionManageIssues   Action = "manage_issues"
	ActionReviewUsers    Action = "review_users"
	ActionManageCatalogs Action = "manage_catalogs"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return action != ActionReviewUsers && action != ActionManageCatalogs
	case RoleContributor:
		return action == ActionRead || action == ActionSubmitPitch || action == ActionClaim
	case RoleTBD:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleTBD, RoleContributor, RoleStaff, RoleAdmin:
		return Role(role)
	default:
		return RoleTBD
	}
}
