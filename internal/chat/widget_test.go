package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidget_Transitions(t *testing.T) {
	w := NewWidget()
	assert.Equal(t, Closed, w.State())

	assert.Equal(t, Open, w.Toggle())
	assert.Equal(t, Closed, w.Toggle())

	w.Toggle()
	assert.Equal(t, Closed, w.Close())
	assert.Equal(t, Closed, w.Close())
	assert.Equal(t, "closed", w.State().String())
}
