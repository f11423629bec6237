package membership

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trudslev/kofi-members/app/models"
)

type fakeRepository struct {
	users        map[string]*models.User
	roles        map[uint]map[string]bool
	grants       map[uint]*models.RoleGrant
	logs         []models.UserLog
	events       []*models.WebhookEvent
	nextUserID   uint
	createErrors bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:      map[string]*models.User{},
		roles:      map[uint]map[string]bool{},
		grants:     map[uint]*models.RoleGrant{},
		nextUserID: 1,
	}
}

func (f *fakeRepository) GetUserByEmail(email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateUser(user *models.User) error {
	if f.createErrors {
		return errors.New("insert failed")
	}
	user.ID = f.nextUserID
	f.nextUserID++
	f.users[user.Email] = user
	return nil
}

func (f *fakeRepository) AddUserRole(userID uint, role string) error {
	if f.roles[userID] == nil {
		f.roles[userID] = map[string]bool{}
	}
	f.roles[userID][role] = true
	return nil
}

func (f *fakeRepository) RemoveUserRole(userID uint, role string) error {
	delete(f.roles[userID], role)
	return nil
}

func (f *fakeRepository) UserHasRole(userID uint, role string) (bool, error) {
	return f.roles[userID][role], nil
}

func (f *fakeRepository) UpsertRoleGrant(userID uint, role string, grantedAt time.Time) error {
	f.grants[userID] = &models.RoleGrant{UserID: userID, Role: role, GrantedAt: grantedAt}
	return nil
}

func (f *fakeRepository) DeleteRoleGrant(userID uint) error {
	delete(f.grants, userID)
	return nil
}

func (f *fakeRepository) ListRoleGrants() ([]models.RoleGrant, error) {
	var grants []models.RoleGrant
	for _, g := range f.grants {
		grants = append(grants, *g)
	}
	return grants, nil
}

func (f *fakeRepository) CreateUserLog(entry *models.UserLog) error {
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeRepository) CreateWebhookEvent(event *models.WebhookEvent) error {
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepository) MarkWebhookEventProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("event not found")
}

func (f *fakeRepository) actions() []string {
	var actions []string
	for _, l := range f.logs {
		actions = append(actions, l.Action)
	}
	return actions
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testOptions() *models.Options {
	opts := models.DefaultOptions()
	opts.VerificationToken = "secret-token"
	opts.TierRoleMap = []models.TierRole{
		{Tier: "Gold", Role: "gold_member"},
		{Tier: "Silver", Role: "silver_member"},
	}
	return opts
}

func subscriptionPayload() *DonationPayload {
	return &DonationPayload{
		VerificationToken:     "secret-token",
		Email:                 "donor@example.com",
		TierName:              "Gold",
		Amount:                5,
		Currency:              "USD",
		IsSubscriptionPayment: true,
	}
}

func TestProcessDonationMissingToken(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	p := subscriptionPayload()
	p.VerificationToken = "  "

	_, err := svc.ProcessDonation(context.Background(), testOptions(), p)
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Empty(t, repo.logs)
}

func TestProcessDonationInvalidToken(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	p := subscriptionPayload()
	p.VerificationToken = "wrong"

	_, err := svc.ProcessDonation(context.Background(), testOptions(), p)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestProcessDonationUnconfiguredTokenRejectsAll(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	opts := testOptions()
	opts.VerificationToken = ""

	_, err := svc.ProcessDonation(context.Background(), opts, subscriptionPayload())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestProcessDonationInvalidEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	for _, email := range []string{"", "not-an-email", "a@"} {
		p := subscriptionPayload()
		p.Email = email

		_, err := svc.ProcessDonation(context.Background(), testOptions(), p)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
}

func TestProcessDonationSubscriptionGate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	p := subscriptionPayload()
	p.IsSubscriptionPayment = false

	result, err := svc.ProcessDonation(context.Background(), testOptions(), p)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, repo.users, "no user must be created for a gated payload")
	assert.Empty(t, repo.logs, "no audit rows for a gated payload")
}

func TestProcessDonationOneOffAllowedWhenGateDisabled(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	opts := testOptions()
	opts.OnlySubscriptions = false
	p := subscriptionPayload()
	p.IsSubscriptionPayment = false

	result, err := svc.ProcessDonation(context.Background(), opts, p)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.True(t, result.UserCreated)
}

func TestProcessDonationCreatesUserAndGrantsRole(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	result, err := svc.ProcessDonation(context.Background(), testOptions(), subscriptionPayload())
	require.NoError(t, err)

	assert.True(t, result.UserCreated)
	assert.Equal(t, "gold_member", result.Role)
	require.NotNil(t, repo.users["donor@example.com"])
	assert.True(t, repo.roles[result.UserID]["gold_member"])

	grant := repo.grants[result.UserID]
	require.NotNil(t, grant)
	assert.Equal(t, "gold_member", grant.Role)
	assert.WithinDuration(t, time.Now(), grant.GrantedAt, 5*time.Second)

	assert.Equal(t, []string{
		models.ActionUserCreated,
		models.ActionRoleAssigned,
		models.ActionDonationReceived,
	}, repo.actions())
}

func TestProcessDonationExistingUser(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	user, err := models.CreateUser("donor@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.CreateUser(user))

	result, err := svc.ProcessDonation(context.Background(), testOptions(), subscriptionPayload())
	require.NoError(t, err)

	assert.False(t, result.UserCreated)
	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, []string{
		models.ActionRoleAssigned,
		models.ActionDonationReceived,
	}, repo.actions())
}

func TestProcessDonationRenewalRestampsGrant(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	stale := time.Now().AddDate(0, 0, -40)
	user, err := models.CreateUser("donor@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.CreateUser(user))
	require.NoError(t, repo.AddUserRole(user.ID, "gold_member"))
	require.NoError(t, repo.UpsertRoleGrant(user.ID, "gold_member", stale))

	_, err = svc.ProcessDonation(context.Background(), testOptions(), subscriptionPayload())
	require.NoError(t, err)

	grant := repo.grants[user.ID]
	require.NotNil(t, grant)
	assert.True(t, grant.GrantedAt.After(stale), "renewal must move the grant timestamp forward")
}

func TestProcessDonationNoMatchingTierNoDefault(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	p := subscriptionPayload()
	p.TierName = "Bronze"

	result, err := svc.ProcessDonation(context.Background(), testOptions(), p)
	require.NoError(t, err)

	assert.Empty(t, result.Role)
	assert.Empty(t, repo.roles[result.UserID])
	assert.Equal(t, []string{
		models.ActionUserCreated,
		models.ActionDonationReceived,
	}, repo.actions())
}

func TestProcessDonationFallsBackToDefaultRole(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	opts := testOptions()
	opts.DefaultRole = "supporter"
	p := subscriptionPayload()
	p.TierName = "Bronze"

	result, err := svc.ProcessDonation(context.Background(), opts, p)
	require.NoError(t, err)
	assert.Equal(t, "supporter", result.Role)
	assert.True(t, repo.roles[result.UserID]["supporter"])
}

func TestProcessDonationUserCreationFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.createErrors = true
	svc := NewService(repo, quietLogger())

	_, err := svc.ProcessDonation(context.Background(), testOptions(), subscriptionPayload())
	assert.ErrorIs(t, err, ErrUserCreation)
}

func TestProcessDonationLogsDonationAmount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	p := subscriptionPayload()
	p.Amount = 12.5
	p.Currency = "EUR"

	_, err := svc.ProcessDonation(context.Background(), testOptions(), p)
	require.NoError(t, err)

	last := repo.logs[len(repo.logs)-1]
	assert.Equal(t, models.ActionDonationReceived, last.Action)
	require.NotNil(t, last.Amount)
	assert.InDelta(t, 12.5, *last.Amount, 0.0001)
	require.NotNil(t, last.Currency)
	assert.Equal(t, "EUR", *last.Currency)
}

func TestRecordAndMarkWebhookEvent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, quietLogger())

	event, err := svc.RecordWebhookEvent(context.Background(), "evt-1", `{"email":"x"}`, true)
	require.NoError(t, err)
	require.NotZero(t, event.ID)
	assert.Nil(t, event.ProcessedAt)

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), event.ID, errors.New("boom")))
	assert.NotNil(t, event.ProcessedAt)
	assert.Equal(t, "boom", event.ProcessingError)
}
