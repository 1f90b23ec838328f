package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/utils"
)

// challengeTTL is how long a proposed mutation stays confirmable.
const challengeTTL = 5 * time.Minute

// Notifier delivers the one-time code out of band.
type Notifier interface {
	Notify(recipient, subject, body string) error
}

// OTPService is the challenge store gating sensitive account mutations.
// Challenges live in Redis under otp:<class>:<userID>, expire via TTL and
// are consumed atomically so concurrent confirms cannot both succeed.
type OTPService struct {
	redis    *redis.Client
	notifier Notifier
}

// NewOTPService creates a new OTP service instance
func NewOTPService(redisClient *redis.Client, notifier Notifier) *OTPService {
	return &OTPService{redis: redisClient, notifier: notifier}
}

// consumeScript deletes and returns the payload only when the submitted code
// matches. First confirm wins; a concurrent loser sees an empty key.
// Returns: nil (missing), "MISMATCH", or the stored payload.
var consumeScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return false
end
if code ~= ARGV[1] then
  return 'MISMATCH'
end
local payload = redis.call('HGET', KEYS[1], 'payload')
redis.call('DEL', KEYS[1])
return payload
`)

func challengeKey(class string, user *models.User) string {
	return fmt.Sprintf("otp:%s:%s", class, user.ID.Hex())
}

// Propose stores a new challenge for the user and mutation class,
// overwriting any prior pending one, then emails the code. Store-then-notify
// is atomic from the caller's view: if delivery fails the challenge is
// removed and ErrNotification returned, leaving nothing pending.
func (s *OTPService) Propose(ctx context.Context, user *models.User, class string, payload interface{}) error {
	if s.redis == nil {
		return models.ErrNotification
	}

	code, err := utils.GenerateOTP(6)
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	key := challengeKey(class, user)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code", code, "payload", string(data))
	pipe.Expire(ctx, key, challengeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	subject := "Your Verification Code"
	body := fmt.Sprintf("Your verification code is: %s. It is valid for 5 minutes.", code)
	if err := s.notifier.Notify(user.Email, subject, body); err != nil {
		s.redis.Del(ctx, key)
		return fmt.Errorf("%w: %v", models.ErrNotification, err)
	}

	return nil
}

// Confirm consumes the challenge for the user and class. A wrong code leaves
// the challenge live for a later correct attempt; a match deletes it so the
// code is single use. The returned bytes are the stored mutation payload.
func (s *OTPService) Confirm(ctx context.Context, user *models.User, class, submittedCode string) ([]byte, error) {
	if s.redis == nil {
		return nil, models.ErrChallengeExpired
	}

	result, err := consumeScript.Run(ctx, s.redis, []string{challengeKey(class, user)}, submittedCode).Result()
	if err == redis.Nil {
		return nil, models.ErrChallengeExpired
	}
	if err != nil {
		return nil, err
	}

	str, ok := result.(string)
	if !ok {
		return nil, models.ErrChallengeExpired
	}
	if str == "MISMATCH" {
		return nil, models.ErrChallengeMismatch
	}

	return []byte(str), nil
}
