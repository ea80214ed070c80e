package taskflow_test

import (
	"context"
	"testing"
	"time"

	taskflow "github.com/goliatone/go-taskflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements taskflow.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (taskflow.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(taskflow.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (taskflow.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(taskflow.Identity), args.Error(1)
}

type testConfig struct {
	signingKey      string
	tokenExpiration int
}

func (c testConfig) GetSigningKey() string { return c.signingKey }
func (c testConfig) GetSigningMethod() string {
	return "HS256"
}
func (c testConfig) GetContextKey() string   { return "user" }
func (c testConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c testConfig) GetTokenLookup() string  { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string   { return "Bearer" }
func (c testConfig) GetIssuer() string       { return "test-issuer" }
func (c testConfig) GetAudience() []string   { return []string{"test-audience"} }

func newTestIdentity(id string) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(id)
	return identity
}

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig{signingKey: "test-signing-key", tokenExpiration: 30}

	t.Run("returns signed token for valid credentials", func(t *testing.T) {
		userID := uuid.NewString()
		identity := newTestIdentity(userID)

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "pw12345").Return(identity, nil)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Login(ctx, "pepe", "pw12345")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		session, err := auther.SessionFromToken(token)
		assert.NoError(t, err)
		assert.Equal(t, userID, session.GetUserID())

		provider.AssertExpectations(t)
	})

	t.Run("propagates credential errors", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "bad").Return(nil, taskflow.ErrMismatchedHashAndPassword)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Login(ctx, "pepe", "bad")

		assert.Empty(t, token)
		assert.ErrorIs(t, err, taskflow.ErrMismatchedHashAndPassword)
	})

	t.Run("rejects nil identity", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "pw12345").Return(nil, nil)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Login(ctx, "pepe", "pw12345")

		assert.Empty(t, token)
		assert.ErrorIs(t, err, taskflow.ErrIdentityNotFound)
	})
}

func TestAuther_SessionFromToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig{signingKey: "test-signing-key", tokenExpiration: 30}

	t.Run("decodes session claims", func(t *testing.T) {
		userID := uuid.NewString()
		identity := newTestIdentity(userID)

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "pw12345").Return(identity, nil)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Login(ctx, "pepe", "pw12345")
		assert.NoError(t, err)

		session, err := auther.SessionFromToken(token)
		assert.NoError(t, err)

		assert.Equal(t, userID, session.GetUserID())
		assert.Equal(t, "test-issuer", session.GetIssuer())
		assert.Equal(t, []string{"test-audience"}, session.GetAudience())

		parsedID, err := session.GetUserUUID()
		assert.NoError(t, err)
		assert.Equal(t, userID, parsedID.String())

		assert.NotNil(t, session.GetExpiration())
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), *session.GetExpiration(), 5*time.Second)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		auther := taskflow.NewAuthenticator(provider, cfg)

		otherAuther := taskflow.NewAuthenticator(provider, testConfig{
			signingKey:      "different-signing-key",
			tokenExpiration: 30,
		})

		identity := newTestIdentity(uuid.NewString())
		provider.On("VerifyIdentity", mock.Anything, "pepe", "pw12345").Return(identity, nil)

		token, err := otherAuther.Login(context.Background(), "pepe", "pw12345")
		assert.NoError(t, err)

		session, err := auther.SessionFromToken(token)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, taskflow.ErrTokenSignature)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		provider := &MockIdentityProvider{}

		shortLived := taskflow.NewAuthenticator(provider, testConfig{
			signingKey:      "test-signing-key",
			tokenExpiration: -1,
		})

		identity := newTestIdentity(uuid.NewString())
		provider.On("VerifyIdentity", mock.Anything, "pepe", "pw12345").Return(identity, nil)

		token, err := shortLived.Login(context.Background(), "pepe", "pw12345")
		assert.NoError(t, err)

		session, err := shortLived.SessionFromToken(token)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, taskflow.ErrTokenExpired)
	})
}

func TestAuther_Impersonate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig{signingKey: "test-signing-key", tokenExpiration: 30}

	t.Run("mints token without credentials", func(t *testing.T) {
		userID := uuid.NewString()
		identity := newTestIdentity(userID)

		provider := &MockIdentityProvider{}
		provider.On("FindIdentityByIdentifier", ctx, "pepe").Return(identity, nil)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Impersonate(ctx, "pepe")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		session, err := auther.SessionFromToken(token)
		assert.NoError(t, err)
		assert.Equal(t, userID, session.GetUserID())
	})
}

func TestAuther_IdentityFromSession(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig{signingKey: "test-signing-key", tokenExpiration: 30}

	t.Run("resolves identity from session user id", func(t *testing.T) {
		userID := uuid.NewString()
		identity := newTestIdentity(userID)

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "pw12345").Return(identity, nil)
		provider.On("FindIdentityByIdentifier", ctx, userID).Return(identity, nil)

		auther := taskflow.NewAuthenticator(provider, cfg)

		token, err := auther.Login(ctx, "pepe", "pw12345")
		assert.NoError(t, err)

		session, err := auther.SessionFromToken(token)
		assert.NoError(t, err)

		resolved, err := auther.IdentityFromSession(ctx, session)
		assert.NoError(t, err)
		assert.Equal(t, userID, resolved.ID())

		provider.AssertExpectations(t)
	})
}
