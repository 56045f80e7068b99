package permission

// Permissions checked by the HTTP layer of this service.
const (
	ViewRoles   = "view:roles"
	UpdateRoles = "update:roles"
)

// Actions and Resources describe the permission catalogue of the visitor
// management domain; permissions are named "<action>:<resource>".
var (
	Actions   = []string{"view", "create", "update", "delete"}
	Resources = []string{"departments", "designations", "users", "visitors", "appointments", "attendance", "roles"}
)

// Catalog lists every fine grained permission followed by the wildcard.
func Catalog() []string {
	out := make([]string, 0, len(Actions)*len(Resources)+1)
	for _, r := range Resources {
		for _, a := range Actions {
			out = append(out, a+":"+r)
		}
	}
	return append(out, Wildcard)
}
