package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationProbe struct {
	Resource string `json:"resource" validate:"omitempty,rbac_resource"`
	Action   string `json:"action" validate:"omitempty,rbac_action"`
	Slug     string `json:"slug" validate:"omitempty,rbac_slug"`
	Status   string `json:"status" validate:"omitempty,publish_status"`
}

func TestCustomValidationTags(t *testing.T) {
	v := NewValidator()
	require.NotNil(t, v)

	cases := []struct {
		name  string
		input validationProbe
		valid bool
	}{
		{"all empty passes via omitempty", validationProbe{}, true},
		{"known resource", validationProbe{Resource: "pages"}, true},
		{"unknown resource", validationProbe{Resource: "projects"}, false},
		{"known action", validationProbe{Action: "update"}, true},
		{"unknown action", validationProbe{Action: "publish"}, false},
		{"canonical slug", validationProbe{Slug: "content-team"}, true},
		{"uppercase slug rejected", validationProbe{Slug: "Content-Team"}, false},
		{"one-char slug rejected", validationProbe{Slug: "a"}, false},
		{"draft status", validationProbe{Status: "draft"}, true},
		{"published status", validationProbe{Status: "published"}, true},
		{"unknown status", validationProbe{Status: "archived"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(&tc.input)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidationErrorsNameWireFields(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&validationProbe{Status: "archived"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status", "errors report the json field name")
}
