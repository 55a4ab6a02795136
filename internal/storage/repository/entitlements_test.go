package repository

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/remedyhub/remedy-api/internal/migrations"
)

// setupTestDatabase поднимает контейнер PostgreSQL и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort(nat.Port("5432/tcp")),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"))
	return storage
}

type fixtures struct {
	userUID        string
	subscriptionID int
	ailmentIDs     []int
}

// seedEntitlementFixtures создает пользователя, план с лимитом cap,
// активную подписку и два недуга.
func seedEntitlementFixtures(t *testing.T, s *Storage, cap int) fixtures {
	userUID := uuid.NewString()
	_, err := s.DB.Exec(`INSERT INTO users (uid, email, username, password_hash)
		VALUES ($1, $2, $3, 'hash')`,
		userUID, userUID+"@example.com", "u-"+userUID[:8])
	require.NoError(t, err)

	var planID int
	err = s.DB.QueryRow(`INSERT INTO pricing_plans
		(name, price, currency, remedies_per_ailment, duration_months)
		VALUES ('Basic', 500, 'usd', $1, 1) RETURNING id`, cap).Scan(&planID)
	require.NoError(t, err)

	var subscriptionID int
	err = s.DB.QueryRow(`INSERT INTO user_subscriptions
		(user_uid, plan_id, payment_status, start_date, end_date)
		VALUES ($1, $2, 'paid', now(), now() + interval '1 month') RETURNING id`,
		userUID, planID).Scan(&subscriptionID)
	require.NoError(t, err)

	ailmentIDs := make([]int, 2)
	for i, name := range []string{"insomnia", "headache"} {
		err = s.DB.QueryRow(`INSERT INTO ailments (name, slug) VALUES ($1, $1) RETURNING id`,
			name+"-"+userUID[:8]).Scan(&ailmentIDs[i])
		require.NoError(t, err)
	}

	return fixtures{userUID: userUID, subscriptionID: subscriptionID, ailmentIDs: ailmentIDs}
}

func (f fixtures) createRemedy(t *testing.T, s *Storage, slug string, ailmentIDs []int) int {
	var id int
	err := s.DB.QueryRow(`INSERT INTO remedies (name, slug, category, summary, content, created_by)
		VALUES ($1, $1, 'herbal', 'summary', 'content', $2) RETURNING id`,
		slug+"-"+f.userUID[:8], f.userUID).Scan(&id)
	require.NoError(t, err)
	for _, ailmentID := range ailmentIDs {
		_, err = s.DB.Exec(`INSERT INTO remedy_ailments (remedy_id, ailment_id) VALUES ($1, $2)`, id, ailmentID)
		require.NoError(t, err)
	}
	return id
}

func TestGrantRemedyCapped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage := setupTestDatabase(t)
	ctx := context.Background()

	f := seedEntitlementFixtures(t, storage, 1)
	remedyA := f.createRemedy(t, storage, "chamomile", f.ailmentIDs[:1])
	remedyB := f.createRemedy(t, storage, "valerian", f.ailmentIDs)

	// Первое средство занимает единственный слот первого недуга
	granted, err := storage.GrantRemedyCapped(ctx, f.subscriptionID, f.userUID, remedyA, f.ailmentIDs[:1], 1)
	require.NoError(t, err)
	assert.True(t, granted)

	// Второе средство относится к обоим недугам: первый уже занят,
	// поэтому отказ, и слот второго недуга остается свободным
	granted, err = storage.GrantRemedyCapped(ctx, f.subscriptionID, f.userUID, remedyB, f.ailmentIDs, 1)
	require.NoError(t, err)
	assert.False(t, granted)

	count, err := storage.CountAilmentEntitlements(ctx, f.subscriptionID, f.ailmentIDs[1])
	require.NoError(t, err)
	assert.Equal(t, 0, count, "partial grant must be rolled back")

	unlockedB, err := storage.HasUnlockedRemedy(ctx, f.userUID, remedyB)
	require.NoError(t, err)
	assert.False(t, unlockedB)

	// Повторный запрос уже записанного средства не тратит слоты
	granted, err = storage.GrantRemedyCapped(ctx, f.subscriptionID, f.userUID, remedyA, f.ailmentIDs[:1], 1)
	require.NoError(t, err)
	assert.True(t, granted)

	count, err = storage.CountAilmentEntitlements(ctx, f.subscriptionID, f.ailmentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unlocked, err := storage.ListUnlockedRemedies(ctx, f.userUID)
	require.NoError(t, err)
	assert.Equal(t, []int{remedyA}, unlocked)
}

func TestGrantRemedyUnlimited(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage := setupTestDatabase(t)
	ctx := context.Background()

	f := seedEntitlementFixtures(t, storage, 0)
	remedy := f.createRemedy(t, storage, "ginger", f.ailmentIDs)

	err := storage.GrantRemedyUnlimited(ctx, f.subscriptionID, f.userUID, remedy, f.ailmentIDs)
	require.NoError(t, err)

	slots, err := storage.ListEntitlements(ctx, f.subscriptionID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, []int{remedy}, slots[0].RemedyIDs)
	assert.Equal(t, []int{remedy}, slots[1].RemedyIDs)

	unlocked, err := storage.HasUnlockedRemedy(ctx, f.userUID, remedy)
	require.NoError(t, err)
	assert.True(t, unlocked)
}
