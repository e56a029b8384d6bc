package adminauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTaggedOk(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"kind":"ok","ok":"tok-123"}`))
	require.NoError(t, err)
	require.Equal(t, "tok-123", r.Token)
	require.Empty(t, r.Err)
}

func TestDecodeTaggedErr(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"kind":"err","err":"Invalid credentials"}`))
	require.NoError(t, err)
	require.Empty(t, r.Token)
	require.Equal(t, "Invalid credentials", r.Err)
}

func TestDecodeUntaggedOk(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"ok":"tok-456"}`))
	require.NoError(t, err)
	require.Equal(t, "tok-456", r.Token)
}

func TestDecodeUntaggedErr(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"err":"boom"}`))
	require.NoError(t, err)
	require.Equal(t, "boom", r.Err)
}

func TestDecodeUntaggedErrWinsOverOk(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"ok":"tok","err":"boom"}`))
	require.NoError(t, err)
	require.Equal(t, "boom", r.Err)
	require.Empty(t, r.Token)
}

func TestDecodeTaggedOkWithMissingToken(t *testing.T) {
	r, err := DecodeAuthResult([]byte(`{"kind":"ok"}`))
	require.NoError(t, err)
	require.Empty(t, r.Token)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := DecodeAuthResult([]byte(`{"kind":"maybe"}`))
	require.ErrorIs(t, err, ErrUnrecognizedResult)
}

func TestDecodeUnrecognizedShape(t *testing.T) {
	_, err := DecodeAuthResult([]byte(`{"token":"tok"}`))
	require.ErrorIs(t, err, ErrUnrecognizedResult)
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := DecodeAuthResult([]byte(`<html>bad gateway</html>`))
	require.ErrorIs(t, err, ErrUnrecognizedResult)
}
