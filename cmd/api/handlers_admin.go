package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/gin-gonic/gin"
)

func (api *API) adminDashboard(c *gin.Context) {
	stats, err := api.svc.Dashboard(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_dashboard.html", gin.H{"Title": "Admin Dashboard", "Stats": stats})
}

// Videos

func (api *API) adminVideos(c *gin.Context) {
	videos, err := api.svc.ListVideos(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_videos.html", gin.H{"Title": "Kelola Video", "Videos": videos})
}

// videoForm reads the add/edit video form. An empty category means none.
func videoForm(c *gin.Context) service.VideoInput {
	in := service.VideoInput{
		Title:        c.PostForm("title"),
		EmbedURL:     c.PostForm("embed_url"),
		ThumbnailURL: c.PostForm("thumbnail_url"),
		Description:  c.PostForm("description"),
		Price:        formAmount(c.PostForm("price")),
		IsPremium:    c.PostForm("is_premium") != "",
	}
	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			in.CategoryID = &id
		}
	}
	return in
}

func (api *API) renderVideoForm(c *gin.Context, title, action string, video *models.Video) {
	categories, err := api.svc.ListCategories(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_video_form.html", gin.H{
		"Title":      title,
		"Action":     action,
		"Video":      video,
		"Categories": categories,
	})
}

func (api *API) addVideoPage(c *gin.Context) {
	api.renderVideoForm(c, "Tambah Video", "/admin/add_video", nil)
}

func (api *API) addVideo(c *gin.Context) {
	if _, err := api.svc.CreateVideo(c.Request.Context(), videoForm(c)); err != nil {
		api.flashError(c, err, "/admin/add_video")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Video berhasil ditambahkan!", "/admin/videos")
}

func (api *API) editVideoPage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Video tidak ditemukan.")
		return
	}
	video, err := api.svc.GetVideo(c.Request.Context(), id)
	if err != nil {
		api.fail(c, err)
		return
	}
	api.renderVideoForm(c, "Edit Video", fmt.Sprintf("/admin/edit_video/%d", id), video)
}

func (api *API) editVideo(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Video tidak ditemukan.")
		return
	}
	if _, err := api.svc.UpdateVideo(c.Request.Context(), id, videoForm(c)); err != nil {
		api.flashError(c, err, fmt.Sprintf("/admin/edit_video/%d", id))
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Video berhasil diupdate!", "/admin/videos")
}

func (api *API) deleteVideo(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Video tidak ditemukan.")
		return
	}
	if err := api.svc.DeleteVideo(c.Request.Context(), id); err != nil {
		api.fail(c, err)
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Video berhasil dihapus!", "/admin/videos")
}

// Users

func (api *API) adminUsers(c *gin.Context) {
	users, err := api.svc.ListUsers(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_users.html", gin.H{"Title": "Kelola User", "Users": users})
}

func (api *API) addBalance(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "User tidak ditemukan.")
		return
	}

	amount := formAmount(c.PostForm("amount"))
	user, err := api.svc.AddBalance(c.Request.Context(), id, amount)
	if err != nil {
		api.flashError(c, err, "/admin/users")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess,
		fmt.Sprintf("Saldo %s berhasil ditambahkan ke %s!", models.FormatRupiah(amount), user.Email), "/admin/users")
}

func (api *API) toggleUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "User tidak ditemukan.")
		return
	}

	user, err := api.svc.ToggleUser(c.Request.Context(), middleware.CurrentUser(c), id)
	if errors.Is(err, service.ErrSelfAction) {
		middleware.FlashRedirect(c, middleware.FlashDanger, "Tidak bisa menonaktifkan akun sendiri!", "/admin/users")
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}

	status := "dinonaktifkan"
	if user.IsActive {
		status = "diaktifkan"
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf("User %s berhasil %s!", user.Email, status), "/admin/users")
}

func (api *API) deleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "User tidak ditemukan.")
		return
	}

	user, err := api.svc.DeleteUser(c.Request.Context(), middleware.CurrentUser(c), id)
	if errors.Is(err, service.ErrSelfAction) {
		middleware.FlashRedirect(c, middleware.FlashDanger, "Tidak bisa menghapus akun sendiri!", "/admin/users")
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf("User %s berhasil dihapus!", user.Email), "/admin/users")
}

// Categories

func (api *API) adminCategories(c *gin.Context) {
	categories, err := api.svc.ListCategories(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_categories.html", gin.H{"Title": "Kelola Kategori", "Categories": categories})
}

func (api *API) addCategory(c *gin.Context) {
	category, err := api.svc.CreateCategory(c.Request.Context(), c.PostForm("name"), c.PostForm("description"))
	if err != nil {
		api.flashError(c, err, "/admin/categories")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf("Kategori \"%s\" berhasil ditambahkan!", category.Name), "/admin/categories")
}

func (api *API) editCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Kategori tidak ditemukan.")
		return
	}

	category, err := api.svc.UpdateCategory(c.Request.Context(), id, c.PostForm("name"), c.PostForm("description"))
	if err != nil {
		api.flashError(c, err, "/admin/categories")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf("Kategori \"%s\" berhasil diupdate!", category.Name), "/admin/categories")
}

func (api *API) deleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Kategori tidak ditemukan.")
		return
	}

	category, err := api.svc.DeleteCategory(c.Request.Context(), id)
	var inUse *store.CategoryInUseError
	if errors.As(err, &inUse) {
		middleware.FlashRedirect(c, middleware.FlashDanger, fmt.Sprintf(
			"Tidak bisa menghapus kategori \"%s\" karena masih digunakan oleh %d video!", category.Name, inUse.Count,
		), "/admin/categories")
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf("Kategori \"%s\" berhasil dihapus!", category.Name), "/admin/categories")
}
