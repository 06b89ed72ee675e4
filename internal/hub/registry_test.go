package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence-hub/internal/models"
)

func TestRegistryRegisterAndSnapshotOrder(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Register("c2", "Bob")
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Alice", snap[0].Identity)
	assert.Equal(t, "Bob", snap[1].Identity)
	assert.Equal(t, models.StatusOnline, snap[0].Status)
	assert.Equal(t, models.StatusOnline, snap[1].Status)
}

func TestRegistryDuplicateConnection(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Register("c1", "Mallory")
	require.ErrorIs(t, err, ErrDuplicateConnection)
	require.Len(t, r.Snapshot(), 1)
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("c1", "Alice")
	require.NoError(t, err)

	id, removed := r.Remove("c1")
	assert.True(t, removed)
	assert.Equal(t, "Alice", id)

	id, removed = r.Remove("c1")
	assert.False(t, removed)
	assert.Empty(t, id)
}

func TestRegistryRemoveNotifiesOnlyOnActualRemoval(t *testing.T) {
	r := NewRegistry()
	changes := 0
	r.SetChangeListener(func() { changes++ })

	_, err := r.Register("c1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	r.Remove("c1")
	assert.Equal(t, 2, changes)

	r.Remove("c1")
	assert.Equal(t, 2, changes)
}

func TestRegistryUpdateStatus(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("c1", "Alice")
	require.NoError(t, err)

	require.NoError(t, r.UpdateStatus("c1", models.StatusAway))
	snap := r.Snapshot()
	assert.Equal(t, models.StatusAway, snap[0].Status)

	err = r.UpdateStatus("ghost", models.StatusAway)
	require.ErrorIs(t, err, ErrUnknownConnection)
}

// Snapshot must track membership exactly across any register/remove
// sequence: no stale IDs, every live ID exactly once.
func TestRegistrySnapshotConsistency(t *testing.T) {
	r := NewRegistry()

	ops := []struct {
		register bool
		id       string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"},
		{false, "x"}, {true, "a"}, {false, "b"}, {false, "c"},
	}

	live := make(map[string]bool)
	for _, op := range ops {
		if op.register {
			_, err := r.Register(op.id, op.id)
			require.NoError(t, err)
			live[op.id] = true
		} else {
			r.Remove(op.id)
			delete(live, op.id)
		}

		seen := make(map[string]int)
		for _, conn := range r.Snapshot() {
			seen[conn.ID]++
			assert.True(t, live[conn.ID], "snapshot contains unregistered id %s", conn.ID)
		}
		for id := range live {
			assert.Equal(t, 1, seen[id], "registered id %s should appear exactly once", id)
		}
	}
}
