package pump

import (
	"testing"

	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/fake"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.Peek())
	c.Pop()
	assert.Zero(t, c.Len())

	c.Put(nil)
	assert.Zero(t, c.Len())

	c.Put(fake.Event{Name: "one", Cat: api.CategoryFlow})
	c.Put(fake.Event{Name: "two", Cat: api.CategoryFlow})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "one", c.Peek().String())
	assert.Equal(t, "one", c.Peek().String(), "peek does not consume")
	c.Pop()
	assert.Equal(t, "two", c.Peek().String())
	c.Pop()
	assert.Nil(t, c.Peek())
}
