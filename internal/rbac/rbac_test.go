package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "tbd read", role: RoleTBD, action: ActionRead, allow: true},
		{name: "tbd submit pitch", role: RoleTBD, action: ActionSubmitPitch, allow: false},
		{name: "contributor submit pitch", role: RoleContributor, action: ActionSubmitPitch, allow: true},
		{name: "contributor claim", role: RoleContributor, action: ActionClaim, allow: true},
		{name: "contributor review pitches", role: RoleContributor, action: ActionReviewPitches, allow: false},
		{name: "staff review pitches", role: RoleStaff, action: ActionReviewPitches, allow: true},
		{name: "staff review claims", role: RoleStaff, action: ActionReviewClaims, allow: true},
		{name: "staff review users", role: RoleStaff, action: ActionReviewUsers, allow: false},
		{name: "admin review users", role: RoleAdmin, action: ActionReviewUsers, allow: true},
		{name: "admin manage catalogs", role: RoleAdmin, action: ActionManageCatalogs, allow: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("STAFF"); got != RoleStaff {
		t.Errorf("Normalize(STAFF) = %s", got)
	}
	if got := Normalize("superuser"); got != RoleTBD {
		t.Errorf("Normalize(superuser) = %s, want %s", got, RoleTBD)
	}
}
