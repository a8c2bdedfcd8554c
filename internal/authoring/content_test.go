package authoring

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i < len(ids) {
			id := ids[i]
			i++
			return id
		}
		i++
		return fmt.Sprintf("gen-%d", i)
	}
}

func idsOf(items []ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Header(item).ID
	}
	return out
}

func TestContentListAddInitialisesVariant(t *testing.T) {
	list := NewContentList()

	video := list.Add(KindVideo)
	reading := list.Add(KindReading)
	quiz := list.Add(KindQuiz)

	require.IsType(t, &VideoItem{}, video)
	require.IsType(t, &ReadingItem{}, reading)
	require.IsType(t, &QuizItem{}, quiz)
	assert.Empty(t, video.(*VideoItem).VideoURL)
	assert.NotNil(t, quiz.(*QuizItem).Questions)
	assert.Empty(t, quiz.(*QuizItem).Questions)
	for _, item := range list.Items() {
		h := Header(item)
		assert.NotEmpty(t, h.ID)
		assert.Empty(t, h.Title)
		assert.Empty(t, h.Body)
		assert.True(t, h.Required)
	}
}

func TestContentListAddUnknownKindPanics(t *testing.T) {
	list := NewContentList()
	assert.Panics(t, func() { list.Add(Kind("question")) })
}

func TestContentListFreshIDSkipsCollisions(t *testing.T) {
	list := &ContentList{newID: sequentialIDs("a", "a", "b")}
	list.Add(KindReading)
	list.Add(KindReading)
	assert.Equal(t, []string{"a", "b"}, idsOf(list.Items()))
}

func TestContentListUpdate(t *testing.T) {
	list := NewContentList()
	video := list.Add(KindVideo)
	id := Header(video).ID

	title, url, required := "Intro", "https://example.com/v", false
	require.NoError(t, list.Update(id, ItemPatch{Title: &title, VideoURL: &url, Required: &required}))

	got, ok := list.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Intro", Header(got).Title)
	assert.Equal(t, "https://example.com/v", got.(*VideoItem).VideoURL)
	assert.False(t, Header(got).Required)
}

func TestContentListUpdateUnknownIDIsNoop(t *testing.T) {
	list := NewContentList()
	list.Add(KindReading)
	before := list.Items()

	title := "ignored"
	require.NoError(t, list.Update("missing", ItemPatch{Title: &title}))
	assert.Equal(t, before, list.Items())
}

func TestContentListUpdateRejectsFieldsOfOtherVariants(t *testing.T) {
	list := NewContentList()
	reading := list.Add(KindReading)
	id := Header(reading).ID

	url := "https://example.com/v"
	title := "should not apply"
	err := list.Update(id, ItemPatch{Title: &title, VideoURL: &url})
	require.ErrorIs(t, err, ErrFieldNotApplicable)

	got, _ := list.Get(id)
	assert.Empty(t, Header(got).Title)

	questions := []Question{{Text: "q"}}
	assert.ErrorIs(t, list.Update(id, ItemPatch{Questions: &questions}), ErrFieldNotApplicable)
}

func TestContentListRemove(t *testing.T) {
	list := &ContentList{newID: sequentialIDs("a", "b", "c")}
	list.Add(KindVideo)
	list.Add(KindReading)
	list.Add(KindQuiz)

	list.Remove("b")
	assert.Equal(t, []string{"a", "c"}, idsOf(list.Items()))

	list.Remove("missing")
	assert.Equal(t, []string{"a", "c"}, idsOf(list.Items()))
}

func TestContentListDuplicate(t *testing.T) {
	list := &ContentList{newID: sequentialIDs("a", "b", "c", "d")}
	list.Add(KindVideo)
	quiz := list.Add(KindQuiz)
	list.Add(KindReading)
	quizID := Header(quiz).ID

	title := "Knowledge Check"
	questions := []Question{{Text: "Formats?", Options: []string{"JPG", "PNG", "Both"}, CorrectAnswer: 2}}
	require.NoError(t, list.Update(quizID, ItemPatch{Title: &title, Questions: &questions}))

	dup, err := list.Duplicate(quizID)
	require.NoError(t, err)

	items := list.Items()
	require.Len(t, items, 4)
	assert.Equal(t, []string{"a", "b", "d", "c"}, idsOf(items))
	assert.Equal(t, "Knowledge Check (Copy)", Header(dup).Title)
	assert.Equal(t, questions, dup.(*QuizItem).Questions)

	// the clone must not share question storage with the original
	require.NoError(t, list.UpdateQuestionText("d", 0, "changed"))
	original, _ := list.Get(quizID)
	assert.Equal(t, "Formats?", original.(*QuizItem).Questions[0].Text)
}

func TestContentListDuplicateProducesUniqueAdjacentClone(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for target := 0; target < n; target++ {
			list := NewContentList()
			for i := 0; i < n; i++ {
				list.Add(KindReading)
			}
			before := idsOf(list.Items())

			dup, err := list.Duplicate(before[target])
			require.NoError(t, err)

			after := idsOf(list.Items())
			require.Len(t, after, n+1)
			assert.Equal(t, Header(dup).ID, after[target+1])
			assert.NotContains(t, before, Header(dup).ID)
		}
	}
}

func TestContentListDuplicateUnknownID(t *testing.T) {
	list := NewContentList()
	_, err := list.Duplicate("missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestContentListMoveTo(t *testing.T) {
	cases := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a", "d"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 1, []string{"a", "b", "c", "d"}},
		{2, 3, []string{"a", "b", "d", "c"}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_to_%d", tc.from, tc.to), func(t *testing.T) {
			list := &ContentList{newID: sequentialIDs("a", "b", "c", "d")}
			for i := 0; i < 4; i++ {
				list.Add(KindReading)
			}
			require.NoError(t, list.MoveTo(tc.from, tc.to))
			got := idsOf(list.Items())
			assert.Equal(t, tc.want, got)
			assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, got)
		})
	}
}

func TestContentListMoveToOutOfRange(t *testing.T) {
	list := &ContentList{newID: sequentialIDs("a", "b")}
	list.Add(KindReading)
	list.Add(KindReading)

	for _, tc := range [][2]int{{-1, 0}, {0, 2}, {2, 0}, {0, -1}} {
		err := list.MoveTo(tc[0], tc[1])
		var idxErr *IndexError
		require.True(t, errors.As(err, &idxErr), "move %v", tc)
		assert.Equal(t, []string{"a", "b"}, idsOf(list.Items()))
	}
}

func TestContentListQuestions(t *testing.T) {
	list := NewContentList()
	quiz := list.Add(KindQuiz)
	id := Header(quiz).ID

	require.NoError(t, list.AddQuestion(id))
	require.NoError(t, list.AddQuestion(id))

	got, _ := list.Get(id)
	questions := got.(*QuizItem).Questions
	require.Len(t, questions, 2)
	assert.Equal(t, []string{"", "", "", ""}, questions[0].Options)
	assert.Equal(t, 0, questions[0].CorrectAnswer)

	require.NoError(t, list.UpdateQuestionText(id, 0, "Which record?"))
	require.NoError(t, list.UpdateQuestionOption(id, 0, 3, "Census"))
	require.NoError(t, list.SetCorrectAnswer(id, 0, 3))
	require.NoError(t, list.RemoveQuestion(id, 1))

	got, _ = list.Get(id)
	questions = got.(*QuizItem).Questions
	require.Len(t, questions, 1)
	assert.Equal(t, "Which record?", questions[0].Text)
	assert.Equal(t, "Census", questions[0].Options[3])
	assert.Equal(t, 3, questions[0].CorrectAnswer)
}

func TestContentListQuestionIndexesAreChecked(t *testing.T) {
	list := NewContentList()
	quiz := list.Add(KindQuiz)
	id := Header(quiz).ID
	require.NoError(t, list.AddQuestion(id))

	var idxErr *IndexError
	assert.ErrorAs(t, list.UpdateQuestionText(id, 1, "x"), &idxErr)
	assert.ErrorAs(t, list.UpdateQuestionOption(id, 0, 4, "x"), &idxErr)
	assert.ErrorAs(t, list.SetCorrectAnswer(id, 0, -1), &idxErr)
	assert.ErrorAs(t, list.RemoveQuestion(id, 5), &idxErr)

	got, _ := list.Get(id)
	assert.Len(t, got.(*QuizItem).Questions, 1)
}

func TestContentListUpdateRejectsOutOfRangeCorrectAnswer(t *testing.T) {
	list := NewContentList()
	quiz := list.Add(KindQuiz)
	id := Header(quiz).ID
	require.NoError(t, list.AddQuestion(id))

	cases := map[string][]Question{
		"past last option": {{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 7}},
		"negative":         {{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: -3}},
		"no options":       {{Text: "q", CorrectAnswer: 0}},
	}
	for name, questions := range cases {
		t.Run(name, func(t *testing.T) {
			title := "changed"
			var idxErr *IndexError
			err := list.Update(id, ItemPatch{Title: &title, Questions: &questions})
			require.ErrorAs(t, err, &idxErr)
			assert.Equal(t, "correct_answer", idxErr.Name)

			got, _ := list.Get(id)
			quiz := got.(*QuizItem)
			assert.Empty(t, quiz.Title)
			require.Len(t, quiz.Questions, 1)
			assert.Len(t, quiz.Questions[0].Options, 4)
		})
	}

	valid := []Question{{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 1}}
	require.NoError(t, list.Update(id, ItemPatch{Questions: &valid}))
	got, _ := list.Get(id)
	assert.Equal(t, 1, got.(*QuizItem).Questions[0].CorrectAnswer)
}

func TestContentListQuestionsRequireQuiz(t *testing.T) {
	list := NewContentList()
	video := list.Add(KindVideo)

	assert.ErrorIs(t, list.AddQuestion(Header(video).ID), ErrNotQuiz)
	assert.ErrorIs(t, list.AddQuestion("missing"), ErrItemNotFound)
}

func TestItemViewRoundTripKeepsVariant(t *testing.T) {
	list := NewContentList()
	video := list.Add(KindVideo)
	url := "https://example.com/video"
	require.NoError(t, list.Update(Header(video).ID, ItemPatch{VideoURL: &url}))
	got, _ := list.Get(Header(video).ID)

	view := ViewOf(got)
	require.NotNil(t, view.VideoURL)
	assert.Nil(t, view.Questions)

	back, err := view.Item()
	require.NoError(t, err)
	assert.Equal(t, got, back)

	stray := ItemView{ID: "x", Kind: KindReading, VideoURL: &url}
	_, err = stray.Item()
	assert.ErrorIs(t, err, ErrFieldNotApplicable)
}
