package bmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameMatcher(t *testing.T) {
	m, err := NewNameMatcher([]string{"app.*", "worker.**"}, []string{"app.noisy"})
	require.NoError(t, err)

	assert.True(t, m.Match("app.db"))
	assert.False(t, m.Match("app.db.pool"))
	assert.False(t, m.Match("app.noisy"))
	assert.True(t, m.Match("worker.queue"))
	assert.True(t, m.Match("worker.queue.retry"))
	assert.False(t, m.Match("other"))
	assert.Equal(t, "+[app.*, worker.**] -[app.noisy]", m.String())
}

func TestNameMatcherEmpty(t *testing.T) {
	var zero NameMatcher
	assert.True(t, zero.Match("anything"))
	assert.Equal(t, "*", zero.String())

	m, err := NewNameMatcher(nil, []string{"**.debug"})
	require.NoError(t, err)
	assert.True(t, m.Match("app"))
	assert.False(t, m.Match("app.http.debug"))
}

func TestNameMatcherInvalid(t *testing.T) {
	_, err := NewNameMatcher([]string{"app.[a-"}, nil)
	assert.Error(t, err)
	_, err = NewNameMatcher(nil, []string{"ok", ""})
	assert.EqualError(t, err, "exclude[1] is empty")
}
