package authoring

import (
	"fmt"

	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/policy"
)

// Tab is a section of the admin dashboard.
type Tab string

const (
	TabUsers   Tab = "users"
	TabCourses Tab = "courses"
	TabBadges  Tab = "badges"
)

// Actor is the authenticated user driving the dashboard.
type Actor struct {
	UserID string
	Name   string
	Role   models.UserRole
}

// DashboardView is what the dashboard exposes to its actor.
type DashboardView struct {
	Actor        ActorView           `json:"actor"`
	AccessDenied bool                `json:"access_denied"`
	Capabilities policy.Capabilities `json:"capabilities"`
	Tabs         []Tab               `json:"tabs"`
	ActiveTab    Tab                 `json:"active_tab,omitempty"`
}

// ActorView is the public part of an Actor.
type ActorView struct {
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
}

// Dashboard gates every admin section behind the role policy.
type Dashboard struct {
	actor  Actor
	caps   policy.Capabilities
	tabs   []Tab
	active Tab
}

// NewDashboard builds the dashboard for actor. The role must be one of the
// known variants.
func NewDashboard(actor Actor) *Dashboard {
	if !actor.Role.Valid() {
		panic(fmt.Sprintf("authoring: unknown role %q", actor.Role))
	}
	caps := policy.For(actor.Role)

	var tabs []Tab
	if caps.ViewStudentData {
		tabs = append(tabs, TabUsers)
	}
	if caps.ManageContent {
		tabs = append(tabs, TabCourses, TabBadges)
	}

	d := &Dashboard{actor: actor, caps: caps, tabs: tabs}
	if len(tabs) > 0 {
		d.active = tabs[0]
	}
	return d
}

// Actor returns the user the dashboard was built for.
func (d *Dashboard) Actor() Actor { return d.actor }

// Capabilities returns the capability set of the actor.
func (d *Dashboard) Capabilities() policy.Capabilities { return d.caps }

// AccessDenied reports whether the actor may see nothing at all.
func (d *Dashboard) AccessDenied() bool { return len(d.tabs) == 0 }

// Authorize returns ErrTabNotPermitted unless the actor may use tab.
func (d *Dashboard) Authorize(tab Tab) error {
	for _, t := range d.tabs {
		if t == tab {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTabNotPermitted, tab)
}

// SelectTab switches the active section.
func (d *Dashboard) SelectTab(tab Tab) error {
	if err := d.Authorize(tab); err != nil {
		return err
	}
	d.active = tab
	return nil
}

// View renders the dashboard. A student gets an access-denied view with no tabs.
func (d *Dashboard) View() DashboardView {
	return DashboardView{
		Actor:        ActorView{UserID: d.actor.UserID, Name: d.actor.Name, Role: d.actor.Role},
		AccessDenied: d.AccessDenied(),
		Capabilities: d.caps,
		Tabs:         append([]Tab(nil), d.tabs...),
		ActiveTab:    d.active,
	}
}
