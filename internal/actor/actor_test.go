package actor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunSerializesWork(t *testing.T) {
	a := New()
	defer a.Stop()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Run(func() { counter++ })
		}()
	}
	wg.Wait()

	var got int
	a.Run(func() { got = counter })
	assert.Equal(t, 100, got)
}

func TestPostKeepsOrder(t *testing.T) {
	a := New()
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		a.Post(func() { order = append(order, i) })
	}
	a.Stop()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestStoppedActorRejectsWork(t *testing.T) {
	a := New()
	a.Stop()
	a.Stop()

	ran := false
	assert.False(t, a.Run(func() { ran = true }))
	assert.False(t, a.Post(func() { ran = true }))
	assert.False(t, ran)
}
