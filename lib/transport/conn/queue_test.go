package conn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutgoingQueue_FIFO(t *testing.T) {
	var q outgoingQueue
	assert.True(t, q.empty())
	assert.Nil(t, q.front())

	q.push([]byte("a"))
	q.push([]byte("bb"))
	q.push([]byte("ccc"))
	assert.Equal(t, int64(3), q.length.Load())
	assert.Equal(t, 6, q.bytes)

	var got []string
	for !q.empty() {
		got = append(got, string(q.front().plain))
		q.pop()
	}
	assert.Equal(t, []string{"a", "bb", "ccc"}, got)
	assert.Equal(t, 0, q.bytes)
	assert.Equal(t, int64(0), q.length.Load())

	q.pop()
	assert.True(t, q.empty())
}

func TestOutgoingQueue_Discard(t *testing.T) {
	var q outgoingQueue
	q.push([]byte("x"))
	q.push([]byte("y"))
	q.inFlight = true

	assert.Equal(t, 2, q.discard())
	assert.True(t, q.empty())
	assert.False(t, q.inFlight)
	assert.Equal(t, 0, q.bytes)
	assert.Equal(t, int64(0), q.length.Load())
}

func TestSubscribers_FireOnce(t *testing.T) {
	var s subscribers
	var calls []error
	id, ok := s.add(func(err error) { calls = append(calls, err) })
	require.True(t, ok)
	assert.Equal(t, HandlerID(0), id)

	cause := errors.New("gone")
	s.fire(cause)
	s.fire(errors.New("again"))
	assert.Equal(t, []error{cause}, calls)

	id, ok = s.add(func(error) {})
	assert.False(t, ok)
	assert.Equal(t, HandlerID(-1), id)
	assert.Equal(t, 0, s.count())
}

func TestSubscribers_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	var s subscribers
	called := false
	s.add(func(error) { panic("bad handler") })
	s.add(func(error) { called = true })

	assert.NotPanics(t, func() { s.fire(nil) })
	assert.True(t, called)
}

func TestSubscribers_RemoveUnknownID(t *testing.T) {
	var s subscribers
	s.add(func(error) {})
	s.remove(HandlerID(99))
	assert.Equal(t, 1, s.count())
}
