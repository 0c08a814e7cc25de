package importer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"catalog-harvester/feature/harvest/importer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Configured user wins", func(t *testing.T) {
		var calls atomic.Int32
		a := importer.NewActorResolver("harvest", func(context.Context) (string, error) {
			calls.Add(1)
			return "site_user", nil
		})

		actor, err := a.Actor(ctx)
		require.NoError(t, err)
		assert.Equal(t, "harvest", actor)
		assert.EqualValues(t, 0, calls.Load())
	})

	t.Run("Site user resolved once", func(t *testing.T) {
		var calls atomic.Int32
		a := importer.NewActorResolver("", func(context.Context) (string, error) {
			calls.Add(1)
			return "site_user", nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				actor, err := a.Actor(ctx)
				assert.NoError(t, err)
				assert.Equal(t, "site_user", actor)
			}()
		}
		wg.Wait()

		_, err := a.Actor(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Lookup failure is not cached", func(t *testing.T) {
		var calls atomic.Int32
		a := importer.NewActorResolver("", func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				return "", errors.New("unavailable")
			}
			return "site_user", nil
		})

		_, err := a.Actor(ctx)
		assert.Error(t, err)

		actor, err := a.Actor(ctx)
		require.NoError(t, err)
		assert.Equal(t, "site_user", actor)
	})

	t.Run("No identity", func(t *testing.T) {
		_, err := importer.NewActorResolver("", nil).Actor(ctx)
		assert.Error(t, err)
	})
}
