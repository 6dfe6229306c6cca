package main

import (
	"net/http"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/billing"
	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/telemetry"
	"github.com/RMBLOGG/StreamFliix/internal/web"
	"github.com/gin-gonic/gin"
)

func setupRouter(api *API) (*gin.Engine, error) {
	tmpl, err := web.Templates(api.svc.Location(), api.svc.Now)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = api.cfg.Server.MaxUploadBytes

	// Apply global middleware
	router.Use(telemetry.Recovery(serviceName, api.onPanic))
	router.Use(middleware.Logger(api.logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.Sessions(middleware.NewSessionStore(api.cfg.Auth)))
	router.Use(middleware.SessionAuth(api.svc, api.logger))
	router.Use(middleware.BearerAuth(api.tokens, api.svc))
	router.Use(middleware.DeviceID(api.cfg.App.DeviceCookieMaxAge, api.cfg.Auth.SecureCookie))
	router.Use(middleware.RateLimit(api.rateLimiter))

	// Health check
	router.GET("/health", api.healthCheck)

	// Stripe calls back without a session
	router.POST("/billing/webhook", billing.WebhookHandler(api.cfg.Stripe.WebhookSecret, api.svc, api.logger))

	// Public pages
	router.GET("/", api.index)
	router.GET("/search", api.search)
	router.GET("/login", api.loginPage)
	router.POST("/login", api.login)
	router.GET("/register", api.registerPage)
	router.POST("/register", api.register)
	router.GET("/logout", api.logout)
	router.GET("/video/:id", api.videoDetail)
	router.GET("/watch/:id", api.watch)
	router.GET("/redeem", api.redeemPage)
	router.GET(billing.ReturnPath, api.billingReturn)
	router.POST("/redeem", api.redeem)

	// Logged-in pages
	user := router.Group("/")
	user.Use(middleware.RequireLogin())
	{
		user.GET("/profile", api.profile)
		user.POST("/profile/update", api.updateProfile)
		user.GET("/wallet", api.wallet)
		user.POST("/wallet/topup", api.topup)
		user.POST("/wallet/checkout", api.cardCheckout)
		user.GET("/payment/instructions", api.paymentInstructions)
		user.GET("/view_proof/:filename", api.viewProof)
	}

	// JSON API, authenticated by session cookie or bearer token
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/token", api.issueToken)
		apiGroup.DELETE("/token", middleware.RequireAPIUser(), api.revokeToken)
		apiGroup.GET("/active_announcements", api.activeAnnouncements)
		apiGroup.GET("/user/balance", middleware.RequireAPIUser(), api.userBalance)
		apiGroup.GET("/check_access/:id", middleware.RequireAPIUser(), api.checkAccess)
		apiGroup.GET("/stats", middleware.RequireAPIAdmin(), api.stats)
	}

	// Admin
	admin := router.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/dashboard", api.adminDashboard)

		admin.GET("/videos", api.adminVideos)
		admin.GET("/add_video", api.addVideoPage)
		admin.POST("/add_video", api.addVideo)
		admin.GET("/edit_video/:id", api.editVideoPage)
		admin.POST("/edit_video/:id", api.editVideo)
		admin.GET("/delete_video/:id", api.deleteVideo)

		admin.GET("/users", api.adminUsers)
		admin.POST("/add_balance/:id", api.addBalance)
		admin.GET("/toggle_user/:id", api.toggleUser)
		admin.GET("/delete_user/:id", api.deleteUser)

		admin.GET("/payments", api.adminPayments)
		admin.GET("/approve_payment/:id", api.approvePayment)
		admin.POST("/reject_payment/:id", api.rejectPayment)
		admin.POST("/bulk_approve_payments", api.bulkApprovePayments)
		admin.GET("/payment_details/:id", api.paymentDetails)
		admin.GET("/payment_proof/:filename", api.adminPaymentProof)
		admin.GET("/export_payments", api.exportPayments)

		admin.GET("/categories", api.adminCategories)
		admin.POST("/add_category", api.addCategory)
		admin.POST("/edit_category/:id", api.editCategory)
		admin.GET("/delete_category/:id", api.deleteCategory)
		admin.GET("/get_category/:id", api.getCategory)

		admin.GET("/announcements", api.adminAnnouncements)
		admin.GET("/add_announcement", api.addAnnouncementPage)
		admin.POST("/add_announcement", api.addAnnouncement)
		admin.GET("/edit_announcement/:id", api.editAnnouncementPage)
		admin.POST("/edit_announcement/:id", api.editAnnouncement)
		admin.GET("/delete_announcement/:id", api.deleteAnnouncement)
		admin.GET("/toggle_announcement/:id", api.toggleAnnouncement)

		admin.GET("/access_codes", api.adminAccessCodes)
		admin.POST("/access_codes", api.createAccessCode)
		admin.GET("/delete_access_code/:id", api.deleteAccessCode)

		admin.GET("/api/payment_stats", api.paymentStats)
		admin.GET("/api/category_stats", api.categoryStats)
		admin.GET("/api/announcement_stats", api.announcementStats)
	}

	router.NoRoute(func(c *gin.Context) {
		api.renderError(c, http.StatusNotFound, "Halaman tidak ditemukan.")
	})

	return router, nil
}

func (api *API) onPanic(c *gin.Context, err error) {
	middleware.RequestLogger(c, api.logger).WithError(err).Error("Recovered from panic")
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	api.renderError(c, http.StatusInternalServerError, "Terjadi kesalahan pada server.")
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	path := c.Request.URL.Path
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/api/") ||
		strings.HasPrefix(path, "/billing/")
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	if err := api.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
