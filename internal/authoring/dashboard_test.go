package authoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fh-academy-api/internal/models"
)

func TestDashboardStudentIsDenied(t *testing.T) {
	d := NewDashboard(Actor{UserID: "u1", Name: "Sam", Role: models.RoleStudent})

	view := d.View()
	assert.True(t, view.AccessDenied)
	assert.Empty(t, view.Tabs)
	assert.Empty(t, view.ActiveTab)
	for _, tab := range []Tab{TabUsers, TabCourses, TabBadges} {
		assert.ErrorIs(t, d.Authorize(tab), ErrTabNotPermitted)
	}
}

func TestDashboardTabsFollowCapabilities(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin} {
		t.Run(string(role), func(t *testing.T) {
			d := NewDashboard(Actor{UserID: "u1", Name: "Alex", Role: role})
			view := d.View()

			assert.False(t, view.AccessDenied)
			assert.Equal(t, []Tab{TabUsers, TabCourses, TabBadges}, view.Tabs)
			assert.Equal(t, TabUsers, view.ActiveTab)
			assert.Equal(t, role == models.RoleSuperAdmin, view.Capabilities.ManageAdmins)

			require.NoError(t, d.SelectTab(TabBadges))
			assert.Equal(t, TabBadges, d.View().ActiveTab)
			assert.ErrorIs(t, d.SelectTab(Tab("settings")), ErrTabNotPermitted)
			assert.Equal(t, TabBadges, d.View().ActiveTab)
		})
	}
}

func TestDashboardUnknownRolePanics(t *testing.T) {
	assert.Panics(t, func() { NewDashboard(Actor{Role: models.UserRole("guest")}) })
}
