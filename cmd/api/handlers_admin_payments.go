package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/storage"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/gin-gonic/gin"
)

// proofPlaceholder is served when a proof object has gone missing
const proofPlaceholder = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300">` +
	`<rect width="400" height="300" fill="#2b2b2b"/>` +
	`<text x="200" y="155" fill="#aaaaaa" font-family="sans-serif" font-size="18" text-anchor="middle">Bukti tidak tersedia</text>` +
	`</svg>`

func (api *API) adminPayments(c *gin.Context) {
	ctx := c.Request.Context()
	filter := c.DefaultQuery("status", "all")

	payments, err := api.svc.ListPayments(ctx, filter)
	if err != nil {
		api.fail(c, err)
		return
	}
	counts, err := api.svc.PaymentCounts(ctx)
	if err != nil {
		api.fail(c, err)
		return
	}

	api.render(c, "admin_payments.html", gin.H{
		"Title":        "Kelola Pembayaran",
		"Payments":     payments,
		"Counts":       counts,
		"StatusFilter": filter,
	})
}

func (api *API) approvePayment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pembayaran tidak ditemukan.")
		return
	}

	payment, err := api.svc.ApprovePayment(c.Request.Context(), id)
	if errors.Is(err, store.ErrPaymentSettled) {
		middleware.FlashRedirect(c, middleware.FlashWarning, "Pembayaran sudah diproses sebelumnya.", "/admin/payments")
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}

	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf(
		"Pembayaran %s dari %s berhasil disetujui! Saldo telah ditambahkan.",
		models.FormatRupiah(payment.Amount), payment.UserEmail,
	), "/admin/payments")
}

func (api *API) rejectPayment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pembayaran tidak ditemukan.")
		return
	}

	notes := c.PostForm("admin_notes")
	if notes == "" {
		notes = c.PostForm("rejection_notes")
	}

	payment, err := api.svc.RejectPayment(c.Request.Context(), id, notes)
	if errors.Is(err, store.ErrPaymentSettled) {
		middleware.FlashRedirect(c, middleware.FlashWarning, "Pembayaran sudah diproses sebelumnya.", "/admin/payments")
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}

	middleware.FlashRedirect(c, middleware.FlashWarning, fmt.Sprintf(
		"Pembayaran %s dari %s telah ditolak.", models.FormatRupiah(payment.Amount), payment.UserEmail,
	), "/admin/payments")
}

func (api *API) bulkApprovePayments(c *gin.Context) {
	raw := c.PostFormArray("payment_ids")
	if len(raw) == 0 {
		middleware.FlashRedirect(c, middleware.FlashWarning, "Tidak ada pembayaran yang dipilih!", "/admin/payments")
		return
	}

	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}

	count, total, err := api.svc.BulkApprove(c.Request.Context(), ids)
	if err != nil {
		api.fail(c, err)
		return
	}
	if count == 0 {
		middleware.FlashRedirect(c, middleware.FlashWarning, "Tidak ada pembayaran yang berhasil disetujui.", "/admin/payments")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, fmt.Sprintf(
		"Berhasil menyetujui %d pembayaran dengan total %s!", count, models.FormatRupiah(total),
	), "/admin/payments")
}

func (api *API) paymentDetails(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pembayaran tidak ditemukan.")
		return
	}

	payment, err := api.svc.GetPayment(c.Request.Context(), id)
	if err != nil {
		api.fail(c, err)
		return
	}

	proofURL := ""
	if payment.ProofRef != "" && payment.Method != models.PaymentMethodCard {
		proofURL = "/admin/payment_proof/" + payment.ProofRef
	}
	api.render(c, "admin_payment_details.html", gin.H{
		"Title":    fmt.Sprintf("Pembayaran #%d", payment.ID),
		"Payment":  payment,
		"ProofURL": proofURL,
	})
}

// adminPaymentProof streams any proof, falling back to a placeholder image
func (api *API) adminPaymentProof(c *gin.Context) {
	filename := c.Param("filename")
	rc, err := api.svc.OpenProof(c.Request.Context(), middleware.CurrentUser(c), filename)
	if errors.Is(err, storage.ErrObjectNotFound) {
		c.Data(http.StatusOK, "image/svg+xml", []byte(proofPlaceholder))
		return
	}
	if err != nil {
		api.fail(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(filename), rc, nil)
}

// exportPayments downloads every payment as CSV
func (api *API) exportPayments(c *gin.Context) {
	name := fmt.Sprintf("payments_%s.csv", api.svc.Now().In(api.svc.Location()).Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)

	if err := api.svc.ExportPaymentsCSV(c.Request.Context(), c.Writer); err != nil {
		middleware.RequestLogger(c, api.logger).WithError(err).Error("Payment export failed")
		_ = c.Error(err)
	}
}

