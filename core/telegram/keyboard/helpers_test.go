package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsAddsCancelRow(t *testing.T) {
	m := Options([]string{"food", "rent"}, "❌ Cancel")
	assert.True(t, m.OneTimeKeyboard)
	assert.True(t, m.ResizeKeyboard)
	assert.Equal(t, [][]string{{"food"}, {"rent"}, {"❌ Cancel"}}, Labels(m))
}

func TestOptionsWithoutCancel(t *testing.T) {
	assert.Equal(t, [][]string{{"cash"}}, Labels(Options([]string{"cash"}, "")))
}

func TestReplyButtonsIsPersistent(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	assert.False(t, m.OneTimeKeyboard)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, Labels(m))
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
