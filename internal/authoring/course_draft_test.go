package authoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseDraftStartsEmpty(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	assert.Equal(t, StateEmpty, d.State())
	assert.False(t, d.Ready())
	assert.Equal(t, 0, d.Completion())
}

func TestCourseDraftReadiness(t *testing.T) {
	cases := []struct {
		name        string
		title, desc string
		items       int
		want        bool
	}{
		{"missing title", "", "x", 1, false},
		{"complete", "t", "d", 1, true},
		{"no items", "t", "d", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewCourseDraft("d1", "u1")
			require.NoError(t, d.SetTitle(tc.title))
			require.NoError(t, d.SetDescription(tc.desc))
			for i := 0; i < tc.items; i++ {
				_, err := d.AddItem(KindReading)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, d.Ready())
			if tc.want {
				assert.Equal(t, StateReady, d.State())
			} else {
				assert.Equal(t, StateEditing, d.State())
			}
		})
	}
}

func TestCourseDraftCompletion(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	assert.Equal(t, 0, d.Completion())

	require.NoError(t, d.SetTitle("Memories"))
	assert.Equal(t, 25, d.Completion())

	require.NoError(t, d.SetDuration(30))
	assert.Equal(t, 50, d.Completion())

	require.NoError(t, d.SetDescription("Upload photos"))
	_, err := d.AddItem(KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 100, d.Completion())

	other := NewCourseDraft("d2", "u1")
	require.NoError(t, other.SetDescription("only description"))
	_, err = other.AddItem(KindQuiz)
	require.NoError(t, err)
	assert.Equal(t, 50, other.Completion())
}

func TestCourseDraftApplyQuickTutorial(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.ToggleTemplateSelector())
	require.NoError(t, d.ApplyTemplate("quick-tutorial"))

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, KindVideo, items[0].Kind())
	assert.Equal(t, "Tutorial Video", Header(items[0]).Title)
	assert.Equal(t, "Step-by-step tutorial", Header(items[0]).Body)
	assert.Equal(t, KindReading, items[1].Kind())
	assert.Equal(t, "Practice Exercise", Header(items[1]).Title)
	for _, item := range items {
		assert.True(t, Header(item).Required)
	}
	assert.NotEqual(t, Header(items[0]).ID, Header(items[1]).ID)

	view := d.View()
	assert.Equal(t, "quick-tutorial", view.TemplateID)
	assert.Equal(t, SelectorNone, view.Selector)
	assert.Equal(t, StateEditing, view.State)
}

func TestCourseDraftApplyTemplateOnlyWhenEmpty(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.SetTitle("Started"))
	assert.ErrorIs(t, d.ApplyTemplate("basic-video"), ErrTemplateNotAllowed)
	assert.Empty(t, d.Items())

	fresh := NewCourseDraft("d2", "u1")
	assert.ErrorIs(t, fresh.ApplyTemplate("nope"), ErrUnknownTemplate)
	require.NoError(t, fresh.ApplyTemplate("comprehensive"))
	assert.Len(t, fresh.Items(), 7)
}

func TestCourseDraftReset(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.ApplyTemplate("basic-video"))
	require.NoError(t, d.SetTitle("t"))
	require.NoError(t, d.SetDescription("d"))
	require.NoError(t, d.SetDuration(15))
	require.NoError(t, d.OpenContentTypeSelector())

	require.NoError(t, d.Reset())

	view := d.View()
	assert.Equal(t, StateEmpty, view.State)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.TemplateID)
	assert.Equal(t, SelectorNone, view.Selector)
	assert.Equal(t, 0, view.DurationMinutes)
	require.NoError(t, d.ApplyTemplate("quick-tutorial"))
}

func TestCourseDraftAddItemClosesSelector(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.OpenContentTypeSelector())
	_, err := d.AddItem(KindQuiz)
	require.NoError(t, err)
	assert.Equal(t, SelectorNone, d.View().Selector)
}

func TestCourseDraftFinalizeRequiresReady(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.SetTitle("t"))

	_, err := d.Finalize(false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"description", "content"}, verr.Missing)
	assert.Equal(t, StateEditing, d.State())

	require.NoError(t, d.SetDescription("d"))
	_, err = d.AddItem(KindReading)
	require.NoError(t, err)

	snap, err := d.Finalize(true)
	require.NoError(t, err)
	assert.True(t, snap.Publish)
	assert.Equal(t, "t", snap.Title)
	assert.Len(t, snap.Items, 1)

	require.NoError(t, d.MarkSaved("course-1"))
	assert.Equal(t, StateSaved, d.State())
	assert.Equal(t, "course-1", d.View().SavedCourseID)
}

func TestCourseDraftTerminalStatesRejectMutation(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.Discard())
	assert.Equal(t, StateDiscarded, d.State())

	assert.ErrorIs(t, d.SetTitle("x"), ErrDraftClosed)
	assert.ErrorIs(t, d.Reset(), ErrDraftClosed)
	_, err := d.AddItem(KindVideo)
	assert.ErrorIs(t, err, ErrDraftClosed)
	_, err = d.Finalize(false)
	assert.ErrorIs(t, err, ErrDraftClosed)
	assert.ErrorIs(t, d.Discard(), ErrDraftClosed)
}

func TestCourseDraftMoveItemOutOfRangeKeepsOrder(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.ApplyTemplate("basic-video"))
	before := d.Items()

	var idxErr *IndexError
	require.ErrorAs(t, d.MoveItem(0, 3), &idxErr)
	assert.Equal(t, before, d.Items())

	require.NoError(t, d.MoveItem(2, 0))
	assert.Equal(t, KindQuiz, d.Items()[0].Kind())
}

func TestCourseDraftJSONRoundTrip(t *testing.T) {
	d := NewCourseDraft("d1", "u1")
	require.NoError(t, d.ApplyTemplate("basic-video"))
	require.NoError(t, d.SetTitle("Memories"))
	quizID := Header(d.Items()[2]).ID
	require.NoError(t, d.AddQuestion(quizID))
	require.NoError(t, d.UpdateQuestionOption(quizID, 0, 1, "PNG"))

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var restored CourseDraft
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, d.View(), restored.View())

	require.NoError(t, restored.Discard())
	raw, err = json.Marshal(&restored)
	require.NoError(t, err)
	var closed CourseDraft
	require.NoError(t, json.Unmarshal(raw, &closed))
	assert.Equal(t, StateDiscarded, closed.State())
}
