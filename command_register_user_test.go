package taskflow_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	taskflow "github.com/goliatone/go-taskflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegisterUserHandler_Execute(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		var created *taskflow.User
		users := &stubUsers{
			registerTx: func(ctx context.Context, user *taskflow.User) (*taskflow.User, error) {
				if user.ID == uuid.Nil {
					user.ID = uuid.New()
				}
				user.Active = true
				created = user
				return user, nil
			},
		}

		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: users})

		user, err := handler.Execute(context.Background(), taskflow.RegisterUserMessage{
			FullName: "Pepe Rana",
			Username: "pepe",
			Email:    "pepe@example.com",
			Password: "pw12345",
		})

		assert.NoError(t, err)
		assert.Equal(t, "pepe@example.com", user.Email)
		assert.Equal(t, "pepe", user.Username)
		assert.NotEqual(t, "pw12345", created.PasswordHash)
		assert.NoError(t, taskflow.ComparePasswordAndHash("pw12345", created.PasswordHash))
	})

	t.Run("derives username from email local part", func(t *testing.T) {
		users := &stubUsers{
			registerTx: func(ctx context.Context, user *taskflow.User) (*taskflow.User, error) {
				return user, nil
			},
		}

		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: users})

		user, err := handler.Execute(context.Background(), taskflow.RegisterUserMessage{
			Email:    "rana@example.com",
			Password: "pw12345",
		})

		assert.NoError(t, err)
		assert.Equal(t, "rana", user.Username)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: &stubUsers{}})

		_, err := handler.Execute(context.Background(), taskflow.RegisterUserMessage{
			Email: "pepe@example.com",
		})

		assert.Error(t, err)
	})

	t.Run("unique violation maps to duplicate user", func(t *testing.T) {
		users := &stubUsers{
			registerTx: func(ctx context.Context, user *taskflow.User) (*taskflow.User, error) {
				return nil, errors.New("UNIQUE constraint failed: users.email")
			},
		}

		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: users})

		_, err := handler.Execute(context.Background(), taskflow.RegisterUserMessage{
			Email:    "pepe@example.com",
			Username: "pepe",
			Password: "pw12345",
		})

		assert.ErrorIs(t, err, taskflow.ErrDuplicateUser)
	})

	t.Run("concurrent duplicate registrations yield one success", func(t *testing.T) {
		var inserted int32
		users := &stubUsers{
			registerTx: func(ctx context.Context, user *taskflow.User) (*taskflow.User, error) {
				// only the first insert wins, the store enforces uniqueness
				if !atomic.CompareAndSwapInt32(&inserted, 0, 1) {
					return nil, errors.New("UNIQUE constraint failed: users.email")
				}
				return user, nil
			},
		}

		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: users})

		message := taskflow.RegisterUserMessage{
			Email:    "pepe@example.com",
			Username: "pepe",
			Password: "pw12345",
		}

		results := make([]error, 2)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = handler.Execute(context.Background(), message)
			}(i)
		}
		wg.Wait()

		var succeeded, conflicted int
		for _, err := range results {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, taskflow.ErrDuplicateUser):
				conflicted++
			default:
				t.Fatalf("unexpected registration error: %v", err)
			}
		}

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, conflicted)
	})

	t.Run("cancelled context aborts registration", func(t *testing.T) {
		handler := taskflow.NewRegisterUserHandler(&stubRepo{users: &stubUsers{}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := handler.Execute(ctx, taskflow.RegisterUserMessage{
			Email:    "pepe@example.com",
			Password: "pw12345",
		})

		assert.Error(t, err)
	})
}
