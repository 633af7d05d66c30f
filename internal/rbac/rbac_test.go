package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementNormalize(t *testing.T) {
	t.Run("empty defaults to read", func(t *testing.T) {
		req := Requirement{Resource: ResourcePages}.Normalize()
		assert.Equal(t, []Action{ActionRead}, req.Actions)
	})

	t.Run("dedupes preserving enum order", func(t *testing.T) {
		req := Requirement{
			Resource: ResourcePages,
			Actions:  []Action{ActionDelete, ActionRead, ActionDelete, ActionRead},
		}.Normalize()
		assert.Equal(t, []Action{ActionRead, ActionDelete}, req.Actions)
	})

	t.Run("keeps unknown tokens for later rejection", func(t *testing.T) {
		req := Requirement{
			Resource: ResourcePages,
			Actions:  []Action{ActionRead, Action("publish")},
		}.Normalize()
		assert.Contains(t, req.Actions, Action("publish"))
	})
}

func TestActionValid(t *testing.T) {
	for _, action := range AllActions() {
		assert.True(t, action.Valid())
	}
	assert.False(t, Action("publish").Valid())
	assert.False(t, Action("").Valid())
	assert.False(t, Action("READ").Valid(), "actions are case sensitive")
}

func TestSanitizeActions(t *testing.T) {
	out := SanitizeActions([]Action{ActionDelete, Action("bogus"), ActionRead, ActionDelete})
	assert.Equal(t, []Action{ActionRead, ActionDelete}, out)

	assert.Empty(t, SanitizeActions(nil))
	assert.Empty(t, SanitizeActions([]Action{Action("bogus")}))
}
