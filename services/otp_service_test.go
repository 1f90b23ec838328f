package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyphexlabs/cyphex_backend/models"
)

// capturingNotifier records the delivered code instead of sending email.
type capturingNotifier struct {
	mu        sync.Mutex
	lastCode  string
	failNext  bool
	delivered int
}

func (n *capturingNotifier) Notify(recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext {
		n.failNext = false
		return errors.New("smtp down")
	}
	// The body embeds the code; extract the 6 digits after the colon.
	var code string
	fmt.Sscanf(body, "Your verification code is: %6s", &code)
	n.lastCode = code
	n.delivered++
	return nil
}

func (n *capturingNotifier) code() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastCode
}

func newTestOTPService(t *testing.T) (*OTPService, *miniredis.Miniredis, *capturingNotifier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := &capturingNotifier{}
	return NewOTPService(client, notifier), mr, notifier
}

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "user@example.com",
	}
}

type namePayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func TestProposeAndConfirm(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	err := svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice", LastName: "Smith"})
	require.NoError(t, err)
	require.Len(t, notifier.code(), 6)

	payload, err := svc.Confirm(ctx, user, "profile_update", notifier.code())
	require.NoError(t, err)

	var decoded namePayload
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "Alice", decoded.FirstName)
	assert.Equal(t, "Smith", decoded.LastName)
}

func TestConfirmIsSingleUse(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"}))
	code := notifier.code()

	_, err := svc.Confirm(ctx, user, "profile_update", code)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, user, "profile_update", code)
	assert.ErrorIs(t, err, models.ErrChallengeExpired)
}

func TestConfirmWrongCodeLeavesChallengeLive(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"}))

	_, err := svc.Confirm(ctx, user, "profile_update", "000000")
	if notifier.code() == "000000" {
		t.Skip("generated code collided with the wrong-code fixture")
	}
	assert.ErrorIs(t, err, models.ErrChallengeMismatch)

	// A later correct attempt still succeeds.
	_, err = svc.Confirm(ctx, user, "profile_update", notifier.code())
	assert.NoError(t, err)
}

func TestConfirmExpiredChallenge(t *testing.T) {
	svc, mr, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"}))

	mr.FastForward(5*time.Minute + time.Second)

	_, err := svc.Confirm(ctx, user, "profile_update", notifier.code())
	assert.ErrorIs(t, err, models.ErrChallengeExpired)
}

func TestProposeReplacesPendingChallenge(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "First"}))
	firstCode := notifier.code()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Second"}))
	secondCode := notifier.code()

	if firstCode != secondCode {
		_, err := svc.Confirm(ctx, user, "profile_update", firstCode)
		assert.ErrorIs(t, err, models.ErrChallengeMismatch)
	}

	payload, err := svc.Confirm(ctx, user, "profile_update", secondCode)
	require.NoError(t, err)

	var decoded namePayload
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "Second", decoded.FirstName)
}

func TestProposeDeliveryFailureRemovesChallenge(t *testing.T) {
	svc, mr, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	notifier.failNext = true
	err := svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"})
	assert.ErrorIs(t, err, models.ErrNotification)

	key := fmt.Sprintf("otp:profile_update:%s", user.ID.Hex())
	assert.False(t, mr.Exists(key))
}

func TestConcurrentConfirmsOnlyOneWins(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	user := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"}))
	code := notifier.code()

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(ctx, user, "profile_update", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrChallengeExpired)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestChallengesAreScopedPerUser(t *testing.T) {
	svc, _, notifier := newTestOTPService(t)
	userA := testUser()
	userB := testUser()
	ctx := context.Background()

	require.NoError(t, svc.Propose(ctx, userA, "profile_update", namePayload{FirstName: "A"}))
	codeA := notifier.code()

	_, err := svc.Confirm(ctx, userB, "profile_update", codeA)
	assert.ErrorIs(t, err, models.ErrChallengeExpired)
}

func TestNilRedisDegradesCleanly(t *testing.T) {
	svc := NewOTPService(nil, &capturingNotifier{})
	user := testUser()
	ctx := context.Background()

	err := svc.Propose(ctx, user, "profile_update", namePayload{FirstName: "Alice"})
	assert.ErrorIs(t, err, models.ErrNotification)

	_, err = svc.Confirm(ctx, user, "profile_update", "123456")
	assert.ErrorIs(t, err, models.ErrChallengeExpired)
}
