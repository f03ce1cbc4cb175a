package intake

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headers(auth string) http.Header {
	h := http.Header{}
	if auth != "" {
		h.Set("Authorization", auth)
	}
	return h
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken(headers("Bearer abc")))
	assert.Equal(t, "abc", BearerToken(headers("abc")))
	assert.Equal(t, "", BearerToken(headers("Bearer ")))
	assert.Equal(t, "", BearerToken(headers("Bearer")))
	assert.Equal(t, "", BearerToken(headers("  Bearer  ")))
	assert.Equal(t, "", BearerToken(headers("")))
	assert.Equal(t, "", BearerToken(nil))
}

func TestIdentityResolver_MissingCredentialMakesNoCall(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
	}{
		{name: "no header", headers: http.Header{}},
		{name: "nil headers", headers: nil},
		{name: "empty header", headers: http.Header{"Authorization": []string{""}}},
		{name: "prefix only", headers: headers("Bearer ")},
		{name: "prefix without trailing space", headers: headers("Bearer")},
		{name: "whitespace token", headers: headers("Bearer    ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeIdentity{username: "alice"}
			r := NewIdentityResolver(svc, discardLogger())

			_, err := r.Resolve(context.Background(), tt.headers)
			require.Error(t, err)
			assert.Equal(t, MissingCredential, KindOf(err))
			assert.Equal(t, 0, svc.calls())
		})
	}
}

func TestIdentityResolver_ServiceFailureIsInvalidCredential(t *testing.T) {
	cause := errors.New("NotAuthorizedException: Access Token has expired")
	svc := &fakeIdentity{err: cause}
	r := NewIdentityResolver(svc, discardLogger())

	_, err := r.Resolve(context.Background(), headers("Bearer expired"))
	require.Error(t, err)
	assert.Equal(t, InvalidCredential, KindOf(err))
	assert.ErrorIs(t, err, cause)

	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Invalid token", ie.Message())
	assert.NotContains(t, ie.Message(), "expired")
	assert.Equal(t, []string{"expired"}, svc.tokens)
}

func TestIdentityResolver_EmptyUsername(t *testing.T) {
	r := NewIdentityResolver(&fakeIdentity{username: " "}, discardLogger())

	_, err := r.Resolve(context.Background(), headers("Bearer token"))
	assert.Equal(t, InvalidCredential, KindOf(err))
}

func TestIdentityResolver_Success(t *testing.T) {
	svc := &fakeIdentity{username: "alice"}
	r := NewIdentityResolver(svc, discardLogger())

	for i := 0; i < 2; i++ {
		username, err := r.Resolve(context.Background(), headers("Bearer mock_token"))
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	}
	assert.Equal(t, []string{"mock_token", "mock_token"}, svc.tokens)
}

func TestIdentityResolver_Idempotent(t *testing.T) {
	tests := []struct {
		name    string
		svc     *fakeIdentity
		headers http.Header
		want    Kind
		wantOK  bool
	}{
		{name: "success", svc: &fakeIdentity{username: "alice"}, headers: headers("Bearer mock_token"), wantOK: true},
		{name: "invalid credential", svc: &fakeIdentity{err: errors.New("token revoked")}, headers: headers("Bearer revoked"), want: InvalidCredential},
		{name: "missing credential", svc: &fakeIdentity{username: "alice"}, headers: headers("Bearer"), want: MissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewIdentityResolver(tt.svc, discardLogger())

			first, firstErr := r.Resolve(context.Background(), tt.headers)
			second, secondErr := r.Resolve(context.Background(), tt.headers)

			assert.Equal(t, first, second)
			if tt.wantOK {
				require.NoError(t, firstErr)
				require.NoError(t, secondErr)
				assert.Equal(t, "alice", first)
				return
			}
			assert.Equal(t, tt.want, KindOf(firstErr))
			assert.Equal(t, KindOf(firstErr), KindOf(secondErr))
		})
	}
}
