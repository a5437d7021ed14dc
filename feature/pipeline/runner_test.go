package pipeline

import (
	"context"
	"testing"

	"keymaster/core/remote"
	"keymaster/core/remote/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SingleFlight(t *testing.T) {
	srv := documents(t, defaultFiles())
	s, c := testSettings(srv.URL)

	client := new(mocks.Client)
	expectRemote(client, newStoreRecorder(), true)

	release := make(chan struct{})
	dialed := make(chan struct{})
	dialer := remote.DialerFunc(func(ctx context.Context) (remote.Client, error) {
		close(dialed)
		<-release
		return client, nil
	})

	runner := NewRunner(nil)
	assert.True(t, runner.CanStart())

	first, _ := newTestUpdater(s, c, Options{}, dialer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runner.Start(ctx, first))
	<-dialed

	// Cancelling the caller does not stop the run.
	cancel()

	assert.True(t, runner.IsBusy())
	assert.False(t, runner.CanStart())
	st := runner.Status()
	assert.True(t, st.Busy)
	assert.Equal(t, first.ID(), st.RunID)
	assert.Equal(t, PhaseConnectingToRemote, st.Phase)

	second, _ := newTestUpdater(s, c, Options{}, dialer, nil)
	assert.ErrorIs(t, runner.Start(context.Background(), second), ErrBusy)

	close(release)
	res := runner.Wait()
	require.NotNil(t, res)
	assert.NoError(t, res.Err())
	assert.Equal(t, first.ID(), res.ID)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.True(t, runner.CanStart())
	assert.NotEmpty(t, runner.Transcript())
}

func TestRunner_RecordsFailure(t *testing.T) {
	s, c := testSettings("http://127.0.0.1:1")
	runner := NewRunner(nil)

	u := NewUpdater(s, c, Options{}, Deps{})
	require.NoError(t, runner.Start(context.Background(), u))
	res := runner.Wait()

	require.NotNil(t, res)
	assert.Error(t, res.Err())
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, PhaseStarting, res.Phase)
	assert.False(t, runner.Status().Busy)
	assert.Same(t, res, runner.Status().LastRun)
}

func TestRunner_WaitWhenIdle(t *testing.T) {
	runner := NewRunner(nil)
	assert.Nil(t, runner.Wait())
	assert.Nil(t, runner.Transcript())
}
