package rbac

// System role slugs created at startup.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// RoleSeed is one built-in role definition applied at process bootstrap.
type RoleSeed struct {
	Slug        string
	Name        string
	Description string
	IsSystem    bool
	Permissions []Grant
}

func crud() []Action {
	return []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
}

func readOnly() []Action {
	return []Action{ActionRead}
}

// DefaultRoleSeeds returns the built-in roles. Seeding is fill-gaps-only: an
// administrator's later edits to these roles are never overwritten.
func DefaultRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Slug:        RoleAdmin,
			Name:        "Administrator",
			Description: "Full access to manage the application.",
			IsSystem:    true,
			Permissions: []Grant{
				{Resource: ResourceLogo, Actions: crud()},
				{Resource: ResourceSiteSettings, Actions: crud()},
				{Resource: ResourceCategories, Actions: crud()},
				{Resource: ResourcePages, Actions: crud()},
				{Resource: ResourcePosts, Actions: crud()},
				{Resource: ResourceMenu, Actions: crud()},
				{Resource: ResourceUsers, Actions: crud()},
				{Resource: ResourceRoles, Actions: crud()},
				{Resource: ResourceArticles, Actions: crud()},
			},
		},
		{
			Slug:        RoleEditor,
			Name:        "Editor",
			Description: "Manage all content resources with limited user access.",
			IsSystem:    true,
			Permissions: []Grant{
				{Resource: ResourceLogo, Actions: crud()},
				{Resource: ResourceSiteSettings, Actions: crud()},
				{Resource: ResourceCategories, Actions: crud()},
				{Resource: ResourcePages, Actions: crud()},
				{Resource: ResourcePosts, Actions: crud()},
				{Resource: ResourceMenu, Actions: crud()},
				{Resource: ResourceArticles, Actions: crud()},
				{Resource: ResourceUsers, Actions: readOnly()},
				{Resource: ResourceRoles, Actions: readOnly()},
			},
		},
		{
			Slug:        RoleViewer,
			Name:        "Viewer",
			Description: "Read-only access to published content.",
			IsSystem:    true,
			Permissions: []Grant{
				{Resource: ResourceLogo, Actions: readOnly()},
				{Resource: ResourceSiteSettings, Actions: readOnly()},
				{Resource: ResourceCategories, Actions: readOnly()},
				{Resource: ResourcePages, Actions: readOnly()},
				{Resource: ResourcePosts, Actions: readOnly()},
				{Resource: ResourceMenu, Actions: readOnly()},
				{Resource: ResourceArticles, Actions: readOnly()},
			},
		},
	}
}
