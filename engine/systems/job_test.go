package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidatesArguments(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestSubmitRunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	for i := 0; i < 8; i++ {
		fail := i%2 == 0
		js.Submit(JobTask{
			Name: "job",
			OnStart: func() error {
				if fail {
					return errors.New("boom")
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure:  func(error) { failed.Add(1) },
		})
	}
	js.Shutdown()

	assert.Equal(t, int32(4), completed.Load())
	assert.Equal(t, int32(4), failed.Load())

	// a second shutdown is a no-op
	js.Shutdown()
}

func TestRunAllJoinsErrors(t *testing.T) {
	js, err := NewJobSystem(3, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	errA := errors.New("a")
	errC := errors.New("c")
	var ran atomic.Int32
	err = js.RunAll([]string{"a", "b", "c"}, []func() error{
		func() error { ran.Add(1); return errA },
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return errC },
	})

	assert.Equal(t, int32(3), ran.Load())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)

	assert.NoError(t, js.RunAll(nil, []func() error{func() error { return nil }}))
}
