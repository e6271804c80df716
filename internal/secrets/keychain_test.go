package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain_MockProvider(t *testing.T) {
	keyring.MockInit()
}

func TestSetGet_RoundTrip(t *testing.T) {
	resetForTest()
	keyring.MockInit()

	ok := Set("api_token", "secret-value")
	require.True(t, ok)

	v, found := Get("api_token")
	require.True(t, found)
	require.Equal(t, "secret-value", v)
}

func TestGet_MissingKeyNotFound(t *testing.T) {
	resetForTest()
	keyring.MockInit()

	_, found := Get("does-not-exist")
	require.False(t, found)
	require.False(t, Unavailable())
}

func TestDelete_RemovesKey(t *testing.T) {
	resetForTest()
	keyring.MockInit()

	Set("api_token", "secret-value")
	Delete("api_token")

	_, found := Get("api_token")
	require.False(t, found)
}
