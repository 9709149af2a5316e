package token

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var testWindows = Windows{
	PasswordReset:     time.Hour,
	EmailVerification: time.Hour,
	EmailCode:         10 * time.Minute,
}

type fixture struct {
	store     *memory.UserRepo
	notifier  *mockNotifier
	clock     *clock
	issuer    *Issuer
	validator *Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewUserRepo()
	require.NoError(t, store.Create(context.Background(), &domain.User{
		UserID: "u1", Email: "alice@x.com", PasswordHash: "h", Role: domain.RoleUser,
	}))
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	n := &mockNotifier{}
	return &fixture{
		store:    store,
		notifier: n,
		clock:    c,
		issuer: NewIssuer(IssuerDeps{
			Store: store, Notifier: n, Windows: testWindows, ClientURL: "https://shop.test", Now: c.now,
		}),
		validator: NewValidator(store, c.now),
	}
}

func verified(*domain.User) (map[string]interface{}, error) {
	return map[string]interface{}{"email_verified": true}, nil
}

func TestIssue_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.issuer.Issue(context.Background(), "nobody@x.com", domain.PurposePasswordReset)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, "User not found", err.Error())
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssue_PasswordReset_PersistsAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, "alice@x.com", "Password Reset Request", mock.Anything).Return(nil).Once()

	issued, err := f.issuer.Issue(context.Background(), "Alice@X.com ", domain.PurposePasswordReset)

	require.NoError(t, err)
	assert.Len(t, issued.Token, 40)
	assert.Equal(t, f.clock.now().Add(time.Hour), issued.ExpiresAt)

	u, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	p, ok := u.Pending()
	require.True(t, ok)
	assert.Equal(t, issued.Token, p.Token)
	assert.Equal(t, domain.PurposePasswordReset, p.Purpose)

	f.notifier.AssertNumberOfCalls(t, "Send", 1)
	body := f.notifier.Calls[0].Arguments.String(3)
	assert.Contains(t, body, "https://shop.test/reset-password/"+issued.Token)
}

func TestIssue_EmailCode_SixDigitsTenMinutes(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, "alice@x.com", mock.Anything, mock.Anything).Return(nil)

	issued, err := f.issuer.Issue(context.Background(), "alice@x.com", domain.PurposeEmailCode)

	require.NoError(t, err)
	assert.Len(t, issued.Token, 6)
	assert.Equal(t, f.clock.now().Add(10*time.Minute), issued.ExpiresAt)
	assert.Contains(t, f.notifier.Calls[0].Arguments.String(3), issued.Token)
}

func TestIssue_DeliveryFailure_TokenStaysValid(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	issued, err := f.issuer.Issue(context.Background(), "alice@x.com", domain.PurposePasswordReset)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailed))
	require.NotNil(t, issued)

	_, err = f.validator.RedeemByToken(context.Background(), domain.PurposePasswordReset, issued.Token, nil)
	assert.NoError(t, err)
}

func TestIssue_SecondIssueInvalidatesFirst(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	first, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
	require.NoError(t, err)
	second, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, first.Token, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))

	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, second.Token, nil)
	assert.NoError(t, err)
}

func TestIssue_ConcurrentLeavesOneToken(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	tokens := make([]string, 2)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
			if err == nil {
				tokens[i] = issued.Token
			}
		}(i)
	}
	wg.Wait()
	require.NotEmpty(t, tokens[0])
	require.NotEmpty(t, tokens[1])

	u, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	p, ok := u.Pending()
	require.True(t, ok)
	require.Contains(t, tokens, p.Token)

	loser := tokens[0]
	if loser == p.Token {
		loser = tokens[1]
	}
	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, loser, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, p.Token, nil)
	assert.NoError(t, err)
}

func TestRedeem_SecondRedemptionFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposeEmailVerification)
	require.NoError(t, err)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposeEmailVerification, issued.Token, verified)
	require.NoError(t, err)

	u, _ := f.store.Get(ctx, "u1")
	assert.True(t, u.EmailVerified)
	_, ok := u.Pending()
	assert.False(t, ok)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposeEmailVerification, issued.Token, verified)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
	assert.Equal(t, "Invalid or expired token", err.Error())
}

func TestRedeem_ExpiredTokenLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
	require.NoError(t, err)

	f.clock.advance(time.Hour)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, issued.Token,
		func(*domain.User) (map[string]interface{}, error) {
			return map[string]interface{}{"password_hash": "new"}, nil
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))

	u, _ := f.store.Get(ctx, "u1")
	assert.Equal(t, "h", u.PasswordHash)
	_, ok := u.Pending()
	assert.True(t, ok)
}

func TestRedeem_WrongPurposeRejected(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
	require.NoError(t, err)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposeEmailVerification, issued.Token, verified)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestRedeem_TransitionErrorAbortsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposePasswordReset)
	require.NoError(t, err)

	weak := domain.NewError(domain.ErrValidation, "weak")
	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, issued.Token,
		func(*domain.User) (map[string]interface{}, error) { return nil, weak })
	assert.Equal(t, weak, err)

	_, err = f.validator.RedeemByToken(ctx, domain.PurposePasswordReset, issued.Token, nil)
	assert.NoError(t, err)
}

func TestRedeemForIdentity(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposeEmailCode)
	require.NoError(t, err)

	_, err = f.validator.RedeemForIdentity(ctx, "alice@x.com", domain.PurposeEmailCode, "000000x", verified)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
	_, err = f.validator.RedeemForIdentity(ctx, "nobody@x.com", domain.PurposeEmailCode, issued.Token, verified)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))

	_, err = f.validator.RedeemForIdentity(ctx, "ALICE@x.com", domain.PurposeEmailCode, issued.Token, verified)
	require.NoError(t, err)
	u, _ := f.store.Get(ctx, "u1")
	assert.True(t, u.EmailVerified)
}

func TestRedeem_EmptyOrUnknownToken(t *testing.T) {
	f := newFixture(t)
	for _, tok := range []string{"", "deadbeef"} {
		_, err := f.validator.RedeemByToken(context.Background(), domain.PurposePasswordReset, tok, nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired), tok)
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "1 hour", humanize(time.Hour))
	assert.Equal(t, "2 hours", humanize(2*time.Hour))
	assert.Equal(t, "10 minutes", humanize(10*time.Minute))
	assert.True(t, strings.HasSuffix(humanize(90*time.Minute), "minutes"))
}

func TestRedeem_ReturnsRecordAfterUpdates(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, "alice@x.com", domain.PurposeEmailVerification)
	require.NoError(t, err)

	u, err := f.validator.RedeemByToken(ctx, domain.PurposeEmailVerification, issued.Token, verified)
	require.NoError(t, err)

	assert.Equal(t, "u1", u.UserID)
	assert.True(t, u.EmailVerified)
	assert.Empty(t, u.PasswordHash)
	_, ok := u.Pending()
	assert.False(t, ok)
}

// staleIndex hides freshly created records from email lookups, the way a
// DynamoDB GSI can lag behind a PutItem.
type staleIndex struct {
	*memory.UserRepo
}

func (s staleIndex) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func TestIssueFor_DoesNotNeedEmailLookup(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, "alice@x.com", "Verify your email", mock.Anything).Return(nil).Once()
	store := staleIndex{f.store}
	issuer := NewIssuer(IssuerDeps{Store: store, Notifier: f.notifier, Windows: testWindows, ClientURL: "https://shop.test", Now: f.clock.now})
	ctx := context.Background()

	_, err := issuer.Issue(ctx, "alice@x.com", domain.PurposeEmailVerification)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	u, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	issued, err := issuer.IssueFor(ctx, u, domain.PurposeEmailVerification)
	require.NoError(t, err)

	f.notifier.AssertNumberOfCalls(t, "Send", 1)
	assert.Contains(t, f.notifier.Calls[0].Arguments.String(3), "/verify-email/"+issued.Token)
	stored, _ := f.store.Get(ctx, "u1")
	p, ok := stored.Pending()
	require.True(t, ok)
	assert.Equal(t, issued.Token, p.Token)
}
