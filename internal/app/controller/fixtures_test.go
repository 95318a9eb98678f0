package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/app/service"
	"github.com/tablemenu/menu-backend/internal/db"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"github.com/tablemenu/menu-backend/internal/theme"
	ws "github.com/tablemenu/menu-backend/internal/websocket"
	"github.com/tablemenu/menu-backend/pkg/mailer/resend"
	appredis "github.com/tablemenu/menu-backend/pkg/redis"
	"gorm.io/gorm"
)

const (
	testJWTSecret = "test-jwt-secret"
	testPassword  = "password123"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []resend.SendRequest
}

func (m *stubMailer) Send(_ context.Context, req resend.SendRequest) (*resend.SendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return &resend.SendResponse{ID: fmt.Sprintf("msg_%d", len(m.sent))}, nil
}

func (m *stubMailer) BreakerState() string { return "closed" }

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type nopNotifier struct{}

func (nopNotifier) Publish(uint, ws.Event) {}

// apiEnv wires the real services over an in-memory database and mounts
// the handlers on the same paths the production router uses.
type apiEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	mailer   *stubMailer
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	blacklist := appredis.NewBlacklist(redisClient)

	mailer := &stubMailer{}
	userRepo := repository.NewUserRepository(testDB)
	subRepo := repository.NewSubscriptionRepository(testDB)
	resetRepo := repository.NewPasswordResetRepository(testDB)
	restaurantRepo := repository.NewRestaurantRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	itemRepo := repository.NewMenuItemRepository(testDB)
	activityRepo := repository.NewActivityRepository(testDB)
	analyticsRepo := repository.NewAnalyticsRepository(testDB)

	emailService, err := service.NewEmailService(mailer, "TableMenu <noreply@tablemenu.test>", "https://app.tablemenu.test")
	require.NoError(t, err)

	notifier := nopNotifier{}
	subscriptions := service.NewSubscriptionService(subRepo, userRepo, emailService)
	authService := service.NewAuthService(userRepo, emailService, blacklist, service.AuthSettings{
		JWTSecret:     testJWTSecret,
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		TrialDays:     14,
	})
	resets := service.NewPasswordResetService(resetRepo, userRepo, emailService, "https://app.tablemenu.test")
	restaurants := service.NewRestaurantService(restaurantRepo, categoryRepo, subRepo, activityRepo, subscriptions, notifier)
	categories := service.NewCategoryService(categoryRepo, activityRepo, restaurants, notifier)
	items := service.NewMenuItemService(itemRepo, categoryRepo, activityRepo, restaurants, notifier)
	analytics := service.NewAnalyticsService(analyticsRepo, itemRepo, restaurants, subscriptions)
	sheets := service.NewMenuSheetService(restaurantRepo, categoryRepo, itemRepo, activityRepo, restaurants, notifier)
	publicMenu := service.NewPublicMenuService(restaurantRepo, categoryRepo, itemRepo, subscriptions, analytics)

	renderer, err := theme.NewRenderer()
	require.NoError(t, err)

	authCtrl := NewAuthController(authService, resets)
	subscriptionCtrl := NewSubscriptionController(subscriptions)
	restaurantCtrl := NewRestaurantController(restaurants)
	categoryCtrl := NewCategoryController(categories)
	itemCtrl := NewMenuItemController(items)
	sheetCtrl := NewMenuSheetController(sheets)
	publicCtrl := NewPublicMenuController(publicMenu, renderer)
	uploadCtrl := NewUploadController(service.NewUploadService(nil))
	profileCtrl := NewProfileController(service.NewProfileService(userRepo, resetRepo))
	analyticsCtrl := NewAnalyticsController(analytics, ws.NewHub(), time.Second, []string{"*"})
	auth := middleware.NewAuthMiddleware(testJWTSecret, blacklist).Authenticate()

	r := gin.New()
	r.Use(middleware.LocaleMiddleware())
	r.GET("/menu/:slug", publicCtrl.ShowMenu)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", authCtrl.Register)
	v1.POST("/auth/login", authCtrl.Login)
	v1.POST("/auth/refresh", authCtrl.RefreshToken)
	v1.POST("/auth/logout", auth, authCtrl.Logout)
	v1.GET("/auth/me", auth, authCtrl.GetMe)
	v1.POST("/auth/forgot-password", authCtrl.ForgotPassword)
	v1.GET("/auth/reset-password/validate", authCtrl.ValidateResetToken)
	v1.POST("/auth/reset-password", authCtrl.ResetPassword)

	v1.GET("/profile", auth, profileCtrl.GetProfile)
	v1.PUT("/profile", auth, profileCtrl.UpdateProfile)
	v1.PUT("/profile/password", auth, profileCtrl.ChangePassword)

	v1.GET("/plans", subscriptionCtrl.ListPlans)
	v1.GET("/subscription", auth, subscriptionCtrl.GetSubscription)
	v1.POST("/subscription/upgrade", auth, subscriptionCtrl.Upgrade)
	v1.POST("/subscription/cancel", auth, subscriptionCtrl.Cancel)

	v1.GET("/restaurants", auth, restaurantCtrl.ListRestaurants)
	v1.POST("/restaurants", auth, restaurantCtrl.CreateRestaurant)
	v1.GET("/restaurants/:id", auth, restaurantCtrl.GetRestaurant)
	v1.PUT("/restaurants/:id", auth, restaurantCtrl.UpdateRestaurant)
	v1.DELETE("/restaurants/:id", auth, restaurantCtrl.DeleteRestaurant)
	v1.PUT("/restaurants/:id/template", auth, restaurantCtrl.SetTemplate)
	v1.PUT("/restaurants/:id/domain", auth, restaurantCtrl.SetDomain)
	v1.GET("/restaurants/:id/categories", auth, categoryCtrl.ListCategories)
	v1.POST("/restaurants/:id/categories", auth, categoryCtrl.CreateCategory)
	v1.GET("/restaurants/:id/items", auth, itemCtrl.ListMenuItems)
	v1.POST("/restaurants/:id/items", auth, itemCtrl.CreateMenuItem)
	v1.GET("/restaurants/:id/menu/export", auth, sheetCtrl.ExportMenu)
	v1.POST("/restaurants/:id/menu/import", auth, sheetCtrl.ImportMenu)
	v1.GET("/restaurants/:id/analytics", auth, analyticsCtrl.GetAnalytics)
	v1.PUT("/categories/:id", auth, categoryCtrl.UpdateCategory)
	v1.DELETE("/categories/:id", auth, categoryCtrl.DeleteCategory)
	v1.GET("/items/:id", auth, itemCtrl.GetMenuItem)
	v1.PUT("/items/:id", auth, itemCtrl.UpdateMenuItem)
	v1.PUT("/items/:id/discount", auth, itemCtrl.SetDiscount)
	v1.PUT("/items/:id/availability", auth, itemCtrl.SetAvailability)

	v1.GET("/public/menu/:slug", publicCtrl.GetMenu)
	v1.POST("/public/menu/:slug/events", publicCtrl.RecordEvent)
	v1.POST("/upload/image", auth, uploadCtrl.PresignImage)

	return &apiEnv{
		db:       testDB,
		router:   r,
		mailer:   mailer,
		userRepo: userRepo,
		subRepo:  subRepo,
	}
}

// do sends a JSON request; token may be empty.
func (e *apiEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerOwner signs up through the API and returns the access token.
func (e *apiEnv) registerOwner(t *testing.T, email string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Test Owner",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Tokens.AccessToken)
	return resp.Tokens.AccessToken
}

func (e *apiEnv) createRestaurant(t *testing.T, token, name string) model.Restaurant {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/restaurants", CreateRestaurantRequest{Name: name}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Restaurant model.Restaurant `json:"restaurant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Restaurant
}

func (e *apiEnv) createItem(t *testing.T, token string, restaurantID uint, name string, price float64) model.MenuItem {
	t.Helper()
	w := e.do(http.MethodPost, fmt.Sprintf("/api/v1/restaurants/%d/items", restaurantID), CreateMenuItemRequest{
		Name:  name,
		Price: &price,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Item model.MenuItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Item
}

func priceOf(v float64) *float64 { return &v }

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
