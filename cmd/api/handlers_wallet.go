package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/internal/storage"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// formAmount parses a money field, treating garbage as zero
func formAmount(raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func (api *API) wallet(c *gin.Context) {
	user := middleware.CurrentUser(c)
	payments, err := api.svc.UserPayments(c.Request.Context(), user.ID)
	if err != nil {
		api.fail(c, err)
		return
	}

	api.render(c, "wallet.html", gin.H{
		"Title":           "Wallet",
		"Payments":        payments,
		"MinTopup":        api.svc.MinTopup(),
		"PaymentAccounts": api.cfg.App.PaymentAccounts,
		"CardPayments":    api.svc.CardPaymentsEnabled(),
	})
}

func (api *API) topup(c *gin.Context) {
	user := middleware.CurrentUser(c)
	in := service.TopupInput{
		Amount:     formAmount(c.PostForm("amount")),
		Method:     c.PostForm("payment_method"),
		SenderName: c.PostForm("sender_name"),
	}

	// a missing file is reported by SubmitTopup in validation order
	if fh, err := c.FormFile("proof_file"); err == nil {
		if max := api.cfg.Server.MaxUploadBytes; max > 0 && fh.Size > max {
			middleware.FlashRedirect(c, middleware.FlashDanger, "Ukuran file terlalu besar!", "/wallet")
			return
		}
		file, err := fh.Open()
		if err != nil {
			api.fail(c, err)
			return
		}
		defer file.Close()

		in.Proof = file
		in.ProofName = fh.Filename
		in.ProofSize = fh.Size
	}

	payment, err := api.svc.SubmitTopup(c.Request.Context(), user, in)
	if err != nil {
		api.flashError(c, err, "/wallet")
		return
	}

	account, _ := api.cfg.App.PaymentAccount(payment.Method)
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf(
		"Permintaan top up %s berhasil dikirim! Silakan transfer ke %s dan tunggu verifikasi admin.",
		models.FormatRupiah(payment.Amount), account.AccountNumber,
	), "/wallet")
}

func (api *API) cardCheckout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	session, _, err := api.svc.StartCardTopup(c.Request.Context(), user, formAmount(c.PostForm("amount")))
	if errors.Is(err, service.ErrCardPaymentsDisabled) {
		middleware.FlashRedirect(c, middleware.FlashWarning, "Pembayaran kartu belum tersedia.", "/wallet")
		return
	}
	if err != nil {
		api.flashError(c, err, "/wallet")
		return
	}

	c.Redirect(http.StatusSeeOther, session.URL)
}

// billingReturn is where Checkout sends the browser back. The strict session
// cookie is not sent on that cross-site navigation, so the page is public and
// links onward to the wallet.
func (api *API) billingReturn(c *gin.Context) {
	api.render(c, "billing_return.html", gin.H{
		"Title":   "Pembayaran",
		"Success": c.Query("status") == "success",
	})
}

func (api *API) paymentInstructions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	method := c.DefaultQuery("method", api.cfg.App.DefaultPaymentMethod)
	c.JSON(http.StatusOK, api.svc.PaymentInstructions(method, formAmount(c.Query("amount")), user.Email))
}

// viewProof streams a transfer proof to its owner or an admin
func (api *API) viewProof(c *gin.Context) {
	filename := c.Param("filename")
	rc, err := api.svc.OpenProof(c.Request.Context(), middleware.CurrentUser(c), filename)
	switch {
	case errors.Is(err, service.ErrProofForbidden):
		middleware.FlashRedirect(c, middleware.FlashDanger, "Akses ditolak!", "/wallet")
		return
	case errors.Is(err, storage.ErrObjectNotFound):
		api.renderError(c, http.StatusNotFound, "Bukti transfer tidak ditemukan.")
		return
	case err != nil:
		api.fail(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(filename), rc, nil)
}

func (api *API) redeemPage(c *gin.Context) {
	data := gin.H{"Title": "Kode Akses"}
	code, err := api.svc.DeviceAccessCode(c.Request.Context(), middleware.CurrentDevice(c))
	switch {
	case err == nil:
		data["DeviceCode"] = code
	case !errors.Is(err, store.ErrNotFound):
		api.fail(c, err)
		return
	}
	api.render(c, "redeem.html", data)
}

func (api *API) redeem(c *gin.Context) {
	code, err := api.svc.RedeemAccessCode(c.Request.Context(), userID(c), c.PostForm("code"), middleware.CurrentDevice(c))
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.FlashRedirect(c, middleware.FlashDanger, "Kode akses tidak ditemukan!", "/redeem")
		return
	case errors.Is(err, store.ErrAccessCodeExpired):
		middleware.FlashRedirect(c, middleware.FlashDanger, "Kode akses sudah kedaluwarsa!", "/redeem")
		return
	case errors.Is(err, store.ErrAccessCodeBound):
		middleware.FlashRedirect(c, middleware.FlashDanger, "Kode akses sudah dipakai di perangkat lain!", "/redeem")
		return
	case err != nil:
		api.flashError(c, err, "/redeem")
		return
	}

	expires := code.ExpiresAt.In(api.svc.Location()).Format("02/01/2006 15:04")
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Kode akses aktif! Semua video premium terbuka sampai "+expires+".", "/")
}
