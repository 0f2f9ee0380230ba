package discovery_test

import (
	"sync"
	"testing"

	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/stretchr/testify/assert"
)

func TestScanState(t *testing.T) {
	t.Run("starts idle", func(st *testing.T) {
		state := discovery.NewScanState()

		assert.Equal(st, discovery.PhaseIdle, state.Phase())
		assert.False(st, state.Active())
		assert.False(st, state.Stopped())
	})

	t.Run("sets and resets emergency stop from many goroutines", func(st *testing.T) {
		state := discovery.NewScanState()

		wg := sync.WaitGroup{}

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				state.EmergencyStop()
			}()
		}

		wg.Wait()

		assert.True(st, state.Stopped())

		state.ResetEmergencyStop()

		assert.False(st, state.Stopped())
	})
}
