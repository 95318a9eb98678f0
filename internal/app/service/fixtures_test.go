package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/db"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/internal/websocket"
	"github.com/tablemenu/menu-backend/pkg/mailer/resend"
	"github.com/tablemenu/menu-backend/pkg/util"
	"gorm.io/gorm"
)

const testPassword = "password123"

type fakeMailer struct {
	mu   sync.Mutex
	sent []resend.SendRequest
	err  error
}

func (m *fakeMailer) Send(_ context.Context, req resend.SendRequest) (*resend.SendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	if m.err != nil {
		return nil, m.err
	}
	return &resend.SendResponse{ID: fmt.Sprintf("msg_%d", len(m.sent))}, nil
}

func (m *fakeMailer) BreakerState() string {
	return "closed"
}

func (m *fakeMailer) Sent() []resend.SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]resend.SendRequest(nil), m.sent...)
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (r *fakeRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[tokenID] = ttl
	return nil
}

func (r *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (n *recordingNotifier) Publish(restaurantID uint, event websocket.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	event.RestaurantID = restaurantID
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []websocket.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]websocket.Event(nil), n.events...)
}

// failingCategoryRepository wraps the real repository and fails CreateBatch.
type failingCategoryRepository struct {
	repository.CategoryRepository
}

func (failingCategoryRepository) CreateBatch([]model.MenuCategory) error {
	return errors.New("insert into menu_categories: connection reset")
}

type testEnv struct {
	db       *gorm.DB
	mailer   *fakeMailer
	notifier *recordingNotifier
	revoker  *fakeRevoker

	userRepo       repository.UserRepository
	subRepo        repository.SubscriptionRepository
	resetRepo      repository.PasswordResetRepository
	restaurantRepo repository.RestaurantRepository
	categoryRepo   repository.CategoryRepository
	itemRepo       repository.MenuItemRepository
	activityRepo   repository.ActivityRepository
	analyticsRepo  repository.AnalyticsRepository

	email         EmailService
	subscriptions SubscriptionService
	auth          AuthService
	resets        PasswordResetService
	profiles      ProfileService
	restaurants   RestaurantService
	categories    CategoryService
	items         MenuItemService
	analytics     AnalyticsService
	publicMenu    PublicMenuService
	sheets        MenuSheetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:             testDB,
		mailer:         &fakeMailer{},
		notifier:       &recordingNotifier{},
		revoker:        &fakeRevoker{},
		userRepo:       repository.NewUserRepository(testDB),
		subRepo:        repository.NewSubscriptionRepository(testDB),
		resetRepo:      repository.NewPasswordResetRepository(testDB),
		restaurantRepo: repository.NewRestaurantRepository(testDB),
		categoryRepo:   repository.NewCategoryRepository(testDB),
		itemRepo:       repository.NewMenuItemRepository(testDB),
		activityRepo:   repository.NewActivityRepository(testDB),
		analyticsRepo:  repository.NewAnalyticsRepository(testDB),
	}

	env.email, err = NewEmailService(env.mailer, "TableMenu <noreply@tablemenu.test>", "https://app.tablemenu.test")
	require.NoError(t, err)

	env.subscriptions = NewSubscriptionService(env.subRepo, env.userRepo, env.email)
	env.auth = NewAuthService(env.userRepo, env.email, env.revoker, AuthSettings{
		JWTSecret:     "test-jwt-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		TrialDays:     14,
	})
	env.resets = NewPasswordResetService(env.resetRepo, env.userRepo, env.email, "https://app.tablemenu.test")
	env.profiles = NewProfileService(env.userRepo, env.resetRepo)
	env.restaurants = env.restaurantServiceWith(env.categoryRepo)
	env.categories = NewCategoryService(env.categoryRepo, env.activityRepo, env.restaurants, env.notifier)
	env.items = NewMenuItemService(env.itemRepo, env.categoryRepo, env.activityRepo, env.restaurants, env.notifier)
	env.analytics = NewAnalyticsService(env.analyticsRepo, env.itemRepo, env.restaurants, env.subscriptions)
	env.publicMenu = NewPublicMenuService(env.restaurantRepo, env.categoryRepo, env.itemRepo, env.subscriptions, env.analytics)
	env.sheets = NewMenuSheetService(env.restaurantRepo, env.categoryRepo, env.itemRepo, env.activityRepo, env.restaurants, env.notifier)

	return env
}

func (e *testEnv) restaurantServiceWith(categories repository.CategoryRepository) RestaurantService {
	return NewRestaurantService(e.restaurantRepo, categories, e.subRepo, e.activityRepo, e.subscriptions, e.notifier)
}

// createOwner inserts an account directly. Paid plans get an active period of one month,
// the free plan gets a running trial when trial is true and no trial otherwise.
func (e *testEnv) createOwner(t *testing.T, email string, plan entitlement.PlanType, trial bool) *model.User {
	t.Helper()

	hash, err := util.HashPassword(testPassword)
	require.NoError(t, err)

	now := time.Now()
	sub := &model.UserSubscription{PlanType: plan, Status: entitlement.StatusActive}
	switch {
	case plan != entitlement.PlanFree:
		end := now.AddDate(0, 1, 0)
		sub.SubscriptionEndDate = &end
	case trial:
		end := now.AddDate(0, 0, 14)
		sub.Status = entitlement.StatusTrial
		sub.TrialEndDate = &end
	default:
		ended := now.AddDate(0, 0, -1)
		sub.Status = entitlement.StatusExpired
		sub.TrialEndDate = &ended
	}

	user := &model.User{Email: email, PasswordHash: hash, Role: model.RoleOwner}
	profile := &model.UserProfile{FullName: "Test Owner", BusinessName: "Test GmbH", Language: "en"}
	require.NoError(t, e.userRepo.CreateAccount(user, profile, sub))
	return user
}

func (e *testEnv) createRestaurant(t *testing.T, userID uint, name string) *model.Restaurant {
	t.Helper()
	restaurant, err := e.restaurants.Create(userID, CreateRestaurantInput{Name: name})
	require.NoError(t, err)
	return restaurant
}
