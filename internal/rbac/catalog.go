package rbac

// ResourceDefinitionAction is one toggle offered by the permission matrix UI.
type ResourceDefinitionAction struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
}

// ResourceDefinition describes a protected resource and the actions that are
// meaningful for it. The catalog is fixed for the process lifetime.
type ResourceDefinition struct {
	Resource    Resource                 `json:"resource"`
	Label       string                   `json:"label"`
	Description string                   `json:"description"`
	Actions     []ResourceDefinitionAction `json:"actions"`
}

func fullCrud() []ResourceDefinitionAction {
	return []ResourceDefinitionAction{
		{Action: ActionRead, Label: "View"},
		{Action: ActionCreate, Label: "Create"},
		{Action: ActionUpdate, Label: "Update"},
		{Action: ActionDelete, Label: "Delete"},
	}
}

// definitions is the canonical catalog order. Every full-matrix rendering
// walks this slice, so the order is part of the API contract.
var definitions = []ResourceDefinition{
	{
		Resource:    ResourceLogo,
		Label:       "Logo",
		Description: "Create and manage the site logo.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceSiteSettings,
		Label:       "Site Settings",
		Description: "Manage global site configuration and branding.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceCategories,
		Label:       "Categories",
		Description: "Create and publish categories.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourcePages,
		Label:       "Pages",
		Description: "Create and publish pages.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourcePosts,
		Label:       "Posts",
		Description: "Create and publish posts.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceMenu,
		Label:       "Menu",
		Description: "Organize the site navigation menu.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceUsers,
		Label:       "Users",
		Description: "Manage application users and profiles.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceRoles,
		Label:       "Roles",
		Description: "Manage roles and their permissions.",
		Actions:     fullCrud(),
	},
	{
		Resource:    ResourceArticles,
		Label:       "Articles",
		Description: "Create and manage articles.",
		Actions:     fullCrud(),
	},
}

var definitionIndex = func() map[Resource]ResourceDefinition {
	index := make(map[Resource]ResourceDefinition, len(definitions))
	for _, definition := range definitions {
		index[definition.Resource] = definition
	}
	return index
}()

// Definitions returns the full catalog in canonical order.
func Definitions() []ResourceDefinition {
	return definitions
}

// DefinitionFor looks up the catalog entry for a resource.
func DefinitionFor(resource Resource) (ResourceDefinition, bool) {
	definition, ok := definitionIndex[resource]
	return definition, ok
}

// AllowedActions returns the action set legal for a resource, or nil for a
// resource absent from the catalog.
func AllowedActions(resource Resource) map[Action]bool {
	definition, ok := definitionIndex[resource]
	if !ok {
		return nil
	}

	allowed := make(map[Action]bool, len(definition.Actions))
	for _, entry := range definition.Actions {
		allowed[entry.Action] = true
	}
	return allowed
}
