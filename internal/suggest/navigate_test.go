package suggest

import (
	"testing"

	"github.com/codalotl/proofreader/internal/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNextPrev(t *testing.T) {
	regions, err := ScanAll("a ==b== c ~~d~~ e", DefaultMarkers())
	require.NoError(t, err)
	require.Len(t, regions, 2)

	r, ok := FindNext(regions, 0)
	require.True(t, ok)
	assert.Equal(t, 2, r.Start)

	r, ok = FindNext(regions, 2)
	require.True(t, ok)
	assert.Equal(t, 2, r.Start)

	r, ok = FindNext(regions, 3)
	require.True(t, ok)
	assert.Equal(t, 10, r.Start)

	_, ok = FindNext(regions, 11)
	assert.False(t, ok)

	r, ok = FindPrev(regions, 17)
	require.True(t, ok)
	assert.Equal(t, 10, r.Start)

	r, ok = FindPrev(regions, 10)
	require.True(t, ok)
	assert.Equal(t, 2, r.Start)

	_, ok = FindPrev(regions, 2)
	assert.False(t, ok)

	_, ok = FindNext(nil, 0)
	assert.False(t, ok)
}

func TestApplyNext(t *testing.T) {
	m := DefaultMarkers()
	text := "a ==b== c"
	regions, err := ScanAll(text, m)
	require.NoError(t, err)

	newText, cursor, err := ApplyNext(text, regions[0], Accept, m)
	require.NoError(t, err)
	assert.Equal(t, "a b c", newText)
	assert.Equal(t, 3, cursor)

	newText, cursor, err = ApplyNext(newText, regions[0], Accept, m)
	require.NoError(t, err)
	assert.Equal(t, "a b c", newText)
	assert.Equal(t, 2, cursor)
}

func TestStep_Forward(t *testing.T) {
	m := DefaultMarkers()
	text := "a ==b== c ~~d~~ e"

	res, err := Step(text, 0, Accept, Forward, m)
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.Outcome)
	assert.Equal(t, "a b c ~~d~~ e", res.Text)
	assert.Equal(t, 3, res.Cursor)
	assert.Equal(t, "b", res.Region.Inner)

	res, err = Step(res.Text, res.Cursor, Accept, Forward, m)
	require.NoError(t, err)
	assert.Equal(t, "a b c  e", res.Text)
	assert.Equal(t, 6, res.Cursor)

	res, err = Step(res.Text, res.Cursor, Accept, Forward, m)
	require.NoError(t, err)
	assert.Equal(t, NothingToDo, res.Outcome)
	assert.Equal(t, "a b c  e", res.Text)
	assert.Equal(t, 6, res.Cursor)
}

func TestStep_Backward(t *testing.T) {
	m := DefaultMarkers()
	text := "a ==b== c ~~d~~ e"

	res, err := Step(text, len(text), Reject, Backward, m)
	require.NoError(t, err)
	assert.Equal(t, "a ==b== c d e", res.Text)
	assert.Equal(t, 10, res.Cursor)

	res, err = Step(res.Text, res.Cursor, Reject, Backward, m)
	require.NoError(t, err)
	assert.Equal(t, "a  c d e", res.Text)
	assert.Equal(t, 2, res.Cursor)

	res, err = Step(res.Text, res.Cursor, Reject, Backward, m)
	require.NoError(t, err)
	assert.Equal(t, NothingToDo, res.Outcome)
}

func TestStep_Malformed(t *testing.T) {
	res, err := Step("a ==b", 0, Accept, Forward, DefaultMarkers())
	assert.ErrorIs(t, err, ErrMalformedMarkup)
	assert.Equal(t, "a ==b", res.Text)
}

func TestStep_Terminates(t *testing.T) {
	m := DefaultMarkers()
	original := "Teh quick brown fox jumpd over the lazzy dog. It was  fun.\n\nSecond paragrph here."
	revised := "The quick brown fox jumped over the lazy dog. It was fun!\n\nSecond paragraph here."
	text := Encode(Normalize(diff.DiffWords(original, revised), NormalizeOptions{}), EncodeOptions{Markers: m})

	regions, err := ScanAll(text, m)
	require.NoError(t, err)
	require.NotEmpty(t, regions)

	for _, policy := range []Policy{Accept, Reject} {
		cur, cursor, steps := text, 0, 0
		for {
			res, err := Step(cur, cursor, policy, Forward, m)
			require.NoError(t, err)
			if res.Outcome == NothingToDo {
				break
			}
			cur, cursor = res.Text, res.Cursor
			steps++
			require.LessOrEqual(t, steps, len(regions))
		}
		assert.Equal(t, len(regions), steps)
		assert.False(t, HasMarkers(cur, m))
		if policy == Accept {
			assert.Equal(t, revised, cur)
		} else {
			assert.Equal(t, original, cur)
		}
	}
}
