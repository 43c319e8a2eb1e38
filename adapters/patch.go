package adapters

import (
	"sort"

	"github.com/TeraWattHour/go-authstore"
)

// userAssignments maps the non-nil fields of a patch onto column names.
func userAssignments(p authstore.UserPatch) map[string]any {
	set := map[string]any{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.EmailVerified != nil {
		set["email_verified"] = *p.EmailVerified
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	return set
}

func sessionAssignments(p authstore.SessionPatch) map[string]any {
	set := map[string]any{}
	if p.UserID != nil {
		set["user_id"] = *p.UserID
	}
	if p.Expires != nil {
		set["expires"] = *p.Expires
	}
	return set
}

// sortedColumns returns the keys of set in a stable order so generated
// statements are deterministic.
func sortedColumns(set map[string]any) []string {
	columns := make([]string, 0, len(set))
	for column := range set {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
