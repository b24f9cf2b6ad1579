package post

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestPostTick(t *testing.T) {
	order := []int{}
	Post(func() {
		order = append(order, 1)
		Post(func() {
			order = append(order, 3)
		})
	})
	Post(func() {
		order = append(order, 2)
	})
	Tick()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTickRunsPanicless(t *testing.T) {
	ran := false
	Post(func() {
		panic("boom")
	})
	Post(func() {
		ran = true
	})
	Tick()
	assert.T(t, ran, "callback after panic should still run")
}
