package rbac

// Resource is a protected noun in the CMS. The set is fixed at compile time;
// grants referencing anything else are rejected during validation.
type Resource string

const (
	ResourceLogo         Resource = "logo"
	ResourceSiteSettings Resource = "site-settings"
	ResourceCategories   Resource = "categories"
	ResourcePages        Resource = "pages"
	ResourcePosts        Resource = "posts"
	ResourceMenu         Resource = "menu"
	ResourceUsers        Resource = "users"
	ResourceRoles        Resource = "roles"
	ResourceArticles     Resource = "articles"
)

// Action is a protected verb, identical across all resources.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AllActions returns the global action set in canonical order.
func AllActions() []Action {
	return []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
}

// Valid reports whether a is a member of the global action enum.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Grant pairs a resource with the actions allowed on it. It is the input shape
// for role creation and permission replacement.
type Grant struct {
	Resource Resource `json:"resource" validate:"required,rbac_resource"`
	Actions  []Action `json:"actions" validate:"required,dive,rbac_action"`
}

// Requirement is one {resource, actions} condition attached to a protected
// operation. A role satisfies it when its grant for Resource covers every
// listed action.
type Requirement struct {
	Resource Resource
	Actions  []Action
}

// Normalize de-duplicates the requirement's actions and defaults an empty
// list to read-only, preserving enum order.
func (r Requirement) Normalize() Requirement {
	if len(r.Actions) == 0 {
		return Requirement{Resource: r.Resource, Actions: []Action{ActionRead}}
	}

	seen := make(map[Action]bool, len(r.Actions))
	for _, action := range r.Actions {
		seen[action] = true
	}

	unique := make([]Action, 0, len(seen))
	for _, action := range AllActions() {
		if seen[action] {
			unique = append(unique, action)
		}
	}
	// Keep unknown tokens so validation can reject them later instead of
	// silently widening or narrowing the requirement.
	for _, action := range r.Actions {
		if !action.Valid() && !containsAction(unique, action) {
			unique = append(unique, action)
		}
	}
	return Requirement{Resource: r.Resource, Actions: unique}
}

func containsAction(actions []Action, target Action) bool {
	for _, a := range actions {
		if a == target {
			return true
		}
	}
	return false
}

// SanitizeActions filters the list down to known actions and removes
// duplicates. It runs after validation as a persistence normalization step,
// never as a substitute for it.
func SanitizeActions(actions []Action) []Action {
	seen := make(map[Action]bool, len(actions))
	for _, action := range actions {
		if action.Valid() {
			seen[action] = true
		}
	}

	out := make([]Action, 0, len(seen))
	for _, action := range AllActions() {
		if seen[action] {
			out = append(out, action)
		}
	}
	return out
}
