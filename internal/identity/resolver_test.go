package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedResolver(t *testing.T) {
	r := TrustedResolver{}

	id, err := r.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	id, err = r.Resolve(context.Background(), "  bob  ")
	require.NoError(t, err)
	assert.Equal(t, "bob", id)

	_, err = r.Resolve(context.Background(), "   ")
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{"tok1": "alice"}

	id, err := r.Resolve(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	_, err = r.Resolve(context.Background(), "tok2")
	require.ErrorIs(t, err, ErrUnresolved)
}
