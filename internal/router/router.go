package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/config"
	"github.com/tablemenu/menu-backend/internal/app/controller"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"gorm.io/gorm"
)

type Router struct {
	authController         *controller.AuthController
	profileController      *controller.ProfileController
	subscriptionController *controller.SubscriptionController
	restaurantController   *controller.RestaurantController
	categoryController     *controller.CategoryController
	menuItemController     *controller.MenuItemController
	menuSheetController    *controller.MenuSheetController
	analyticsController    *controller.AnalyticsController
	publicMenuController   *controller.PublicMenuController
	uploadController       *controller.UploadController
	emailController        *controller.EmailController
	authMiddleware         *middleware.AuthMiddleware
	db                     *gorm.DB
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	profileController *controller.ProfileController,
	subscriptionController *controller.SubscriptionController,
	restaurantController *controller.RestaurantController,
	categoryController *controller.CategoryController,
	menuItemController *controller.MenuItemController,
	menuSheetController *controller.MenuSheetController,
	analyticsController *controller.AnalyticsController,
	publicMenuController *controller.PublicMenuController,
	uploadController *controller.UploadController,
	emailController *controller.EmailController,
	authMiddleware *middleware.AuthMiddleware,
	db *gorm.DB,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		profileController:      profileController,
		subscriptionController: subscriptionController,
		restaurantController:   restaurantController,
		categoryController:     categoryController,
		menuItemController:     menuItemController,
		menuSheetController:    menuSheetController,
		analyticsController:    analyticsController,
		publicMenuController:   publicMenuController,
		uploadController:       uploadController,
		emailController:        emailController,
		authMiddleware:         authMiddleware,
		db:                     db,
		config:                 cfg,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	gin.SetMode(r.config.Server.GinMode)
	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))
	router.Use(middleware.LocaleMiddleware())

	router.GET("/health", r.health)

	// guest-facing pages; "/" serves the menu claimed by the request's custom domain
	router.GET("/", r.publicMenuController.ShowDomainMenu)
	router.GET("/menu/:slug", r.publicMenuController.ShowMenu)

	auth := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", r.authController.Register)
			authGroup.POST("/login", r.authController.Login)
			authGroup.POST("/refresh", r.authController.RefreshToken)
			authGroup.POST("/logout", auth, r.authController.Logout)
			authGroup.GET("/me", auth, r.authController.GetMe)
			authGroup.POST("/forgot-password", r.authController.ForgotPassword)
			authGroup.GET("/reset-password/validate", r.authController.ValidateResetToken)
			authGroup.POST("/reset-password", r.authController.ResetPassword)
		}

		profile := v1.Group("/profile")
		profile.Use(auth)
		{
			profile.GET("", r.profileController.GetProfile)
			profile.PUT("", r.profileController.UpdateProfile)
			profile.PUT("/password", r.profileController.ChangePassword)
		}

		v1.GET("/plans", r.subscriptionController.ListPlans)

		subscription := v1.Group("/subscription")
		subscription.Use(auth)
		{
			subscription.GET("", r.subscriptionController.GetSubscription)
			subscription.POST("/upgrade", r.subscriptionController.Upgrade)
			subscription.POST("/cancel", r.subscriptionController.Cancel)
		}

		restaurants := v1.Group("/restaurants")
		restaurants.Use(auth)
		{
			restaurants.GET("", r.restaurantController.ListRestaurants)
			restaurants.POST("", r.restaurantController.CreateRestaurant)
			restaurants.GET("/:id", r.restaurantController.GetRestaurant)
			restaurants.PUT("/:id", r.restaurantController.UpdateRestaurant)
			restaurants.DELETE("/:id", r.restaurantController.DeleteRestaurant)
			restaurants.PUT("/:id/template", r.restaurantController.SetTemplate)
			restaurants.PUT("/:id/customization", r.restaurantController.SetCustomization)
			restaurants.PUT("/:id/domain", r.restaurantController.SetDomain)
			restaurants.GET("/:id/activity", r.restaurantController.GetActivity)

			restaurants.GET("/:id/categories", r.categoryController.ListCategories)
			restaurants.POST("/:id/categories", r.categoryController.CreateCategory)

			restaurants.GET("/:id/items", r.menuItemController.ListMenuItems)
			restaurants.POST("/:id/items", r.menuItemController.CreateMenuItem)

			restaurants.GET("/:id/menu/export", r.menuSheetController.ExportMenu)
			restaurants.POST("/:id/menu/import", r.menuSheetController.ImportMenu)

			restaurants.GET("/:id/analytics", r.analyticsController.GetAnalytics)
			restaurants.GET("/:id/analytics/live", r.analyticsController.LiveAnalytics)
		}

		categories := v1.Group("/categories")
		categories.Use(auth)
		{
			categories.PUT("/:id", r.categoryController.UpdateCategory)
			categories.DELETE("/:id", r.categoryController.DeleteCategory)
		}

		items := v1.Group("/items")
		items.Use(auth)
		{
			items.GET("/:id", r.menuItemController.GetMenuItem)
			items.PUT("/:id", r.menuItemController.UpdateMenuItem)
			items.DELETE("/:id", r.menuItemController.DeleteMenuItem)
			items.PUT("/:id/discount", r.menuItemController.SetDiscount)
			items.PUT("/:id/availability", r.menuItemController.SetAvailability)
			items.PUT("/:id/special", r.menuItemController.SetDailySpecial)
		}

		public := v1.Group("/public/menu")
		{
			public.GET("/:slug", r.publicMenuController.GetMenu)
			public.POST("/:slug/events", r.publicMenuController.RecordEvent)
		}

		upload := v1.Group("/upload")
		upload.Use(auth)
		{
			upload.POST("/image", r.uploadController.PresignImage)
		}

		adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

		admin := v1.Group("/admin")
		admin.Use(auth, adminOnly)
		{
			admin.GET("/email/status", r.emailController.Status)
			admin.POST("/email/test", r.emailController.SendTest)
		}

		v1.POST("/email/send", auth, adminOnly, r.emailController.Send)
	}

	return router, nil
}

// health reports the database connection state.
func (r *Router) health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if r.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := r.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err)
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"message": "TableMenu API is running",
	})
}
