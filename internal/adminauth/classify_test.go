package adminauth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyAdminNotSetup(t *testing.T) {
	ce := ClassifyMessage("Admin account has not been set up yet")
	require.Equal(t, CategoryAdminNotSetup, ce.Category)
	require.True(t, ce.CanCreateDefaultAdmin)

	ce = ClassifyMessage("Admin not set up: no admin account exists yet")
	require.Equal(t, CategoryAdminNotSetup, ce.Category)
	require.True(t, ce.CanCreateDefaultAdmin)
}

func TestClassifyInvalidCredentials(t *testing.T) {
	ce := ClassifyMessage("Invalid credentials")
	require.Equal(t, CategoryInvalidCredentials, ce.Category)
	require.False(t, ce.CanCreateDefaultAdmin)
}

func TestClassifyBackendUnavailable(t *testing.T) {
	for _, msg := range []string{
		"backend unavailable: Post http://x: connection refused",
		"context deadline exceeded",
		"dial tcp: lookup api: no such host",
	} {
		require.Equal(t, CategoryBackendUnavailable, ClassifyMessage(msg).Category, msg)
	}
}

func TestClassifyNoAdminRole(t *testing.T) {
	ce := ClassifyMessage("Unauthorized: no admin role")
	require.Equal(t, CategoryNoAdminRole, ce.Category)
	require.False(t, ce.CanCreateDefaultAdmin)
}

// Формулировка admin-not-setup пересекается с более общим "unauthorized":
// частный случай должен проверяться первым.
func TestClassifyPrecedenceNotSetupBeforeNoRole(t *testing.T) {
	ce := ClassifyMessage("Unauthorized: no admin account exists yet")
	require.Equal(t, CategoryAdminNotSetup, ce.Category)
}

func TestClassifyUnknownEchoesMessage(t *testing.T) {
	ce := ClassifyMessage("disk quota exceeded")
	require.Equal(t, CategoryUnknown, ce.Category)
	require.Equal(t, "disk quota exceeded", ce.Message)
}

func TestClassifyEmptyMessage(t *testing.T) {
	ce := ClassifyMessage("")
	require.Equal(t, CategoryUnknown, ce.Category)
	require.NotEmpty(t, ce.Message)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	require.Equal(t, CategoryInvalidCredentials, ClassifyMessage("INVALID CREDENTIALS").Category)
}

func TestClassifyPassesThroughClassifiedError(t *testing.T) {
	orig := &ClassifiedError{Category: CategoryNoAdminRole, Message: "no access"}
	require.Same(t, orig, Classify(orig))
}

func TestClassifyNilError(t *testing.T) {
	ce := Classify(nil)
	require.Equal(t, CategoryUnknown, ce.Category)
}

func TestInvalidTokenDetection(t *testing.T) {
	require.True(t, IsInvalidTokenError(errors.New("Invalid or expired admin session token")))
	require.True(t, IsInvalidTokenError(errors.New("Unauthorized: no admin role")))
	require.False(t, IsInvalidTokenError(errors.New("connection refused")))
	require.False(t, IsInvalidTokenError(errors.New("Invalid credentials")))
	require.False(t, IsInvalidTokenError(nil))
}

// Фраза отказа по токену не должна попадать в первые три категории —
// по приоритету она уходит в no-admin-role/unknown.
func TestInvalidTokenMessageClassification(t *testing.T) {
	ce := ClassifyMessage("Invalid or expired admin session token")
	require.NotEqual(t, CategoryAdminNotSetup, ce.Category)
	require.NotEqual(t, CategoryInvalidCredentials, ce.Category)
	require.NotEqual(t, CategoryBackendUnavailable, ce.Category)
}
