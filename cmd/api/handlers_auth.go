package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/gin-gonic/gin"
)

func (api *API) loginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	api.render(c, "login.html", gin.H{"Title": "Login", "Email": ""})
}

// allowLogin applies the per-IP login throttle when Redis is available
func (api *API) allowLogin(c *gin.Context) bool {
	if api.throttle == nil {
		return true
	}
	ok, err := api.throttle.CheckRateLimit(c.Request.Context(), "login:"+c.ClientIP(), api.cfg.Auth.LoginAttempts, api.cfg.Auth.LoginWindow)
	if err != nil {
		middleware.RequestLogger(c, api.logger).WithError(err).Warn("Login throttle unavailable")
		return true
	}
	return ok
}

func (api *API) login(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	email := c.PostForm("email")
	if !api.allowLogin(c) {
		middleware.AddFlash(c, middleware.FlashDanger, "Terlalu banyak percobaan login. Coba lagi nanti.")
		api.renderStatus(c, http.StatusTooManyRequests, "login.html", gin.H{"Title": "Login", "Email": email})
		return
	}

	user, err := api.svc.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.AddFlash(c, middleware.FlashDanger, "Email atau password salah!")
		api.render(c, "login.html", gin.H{"Title": "Login", "Email": email})
		return
	case errors.Is(err, service.ErrAccountDisabled):
		middleware.AddFlash(c, middleware.FlashDanger, "Akun Anda telah dinonaktifkan!")
		api.render(c, "login.html", gin.H{"Title": "Login", "Email": email})
		return
	case err != nil:
		api.fail(c, err)
		return
	}

	if api.throttle != nil {
		if err := api.throttle.ResetRateLimit(c.Request.Context(), "login:"+c.ClientIP()); err != nil {
			middleware.RequestLogger(c, api.logger).WithError(err).Warn("Failed to reset login throttle")
		}
	}

	middleware.StartSession(c, user.ID)
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Login berhasil! Selamat datang "+user.Email, safeNext(c.Query("next")))
}

// safeNext only follows local redirect targets
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (api *API) registerPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	api.render(c, "register.html", gin.H{"Title": "Daftar", "Email": ""})
}

func (api *API) register(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	email := c.PostForm("email")
	_, err := api.svc.Register(c.Request.Context(), email, c.PostForm("password"), c.PostForm("confirm_password"))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			middleware.AddFlash(c, middleware.FlashDanger, verr.Message)
		case errors.Is(err, store.ErrEmailTaken):
			middleware.AddFlash(c, middleware.FlashDanger, "Email sudah terdaftar!")
		default:
			api.fail(c, err)
			return
		}
		api.render(c, "register.html", gin.H{"Title": "Daftar", "Email": email})
		return
	}

	middleware.FlashRedirect(c, middleware.FlashSuccess, "Registrasi berhasil! Silakan login.", "/login")
}

func (api *API) logout(c *gin.Context) {
	middleware.EndSession(c)
	middleware.FlashRedirect(c, middleware.FlashInfo, "Anda telah logout.", "/")
}

func (api *API) profile(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	accesses, err := api.svc.ActiveAccesses(ctx, user.ID)
	if err != nil {
		api.fail(c, err)
		return
	}

	data := gin.H{"Title": "Profil", "ActiveAccesses": accesses}
	code, err := api.svc.DeviceAccessCode(ctx, middleware.CurrentDevice(c))
	switch {
	case err == nil:
		data["DeviceCode"] = code
	case !errors.Is(err, store.ErrNotFound):
		api.fail(c, err)
		return
	}

	api.render(c, "profile.html", data)
}

func (api *API) updateProfile(c *gin.Context) {
	middleware.FlashRedirect(c, middleware.FlashInfo, "Fitur update profile akan segera tersedia!", "/profile")
}
