package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/http/middleware"
	"github.com/nurpe/marketplace-payments/internal/service"
)

type Handler struct {
	contracts *service.ContractService
	jobs      *service.JobService
	payments  *service.PaymentService
	reports   *service.ReportService
	log       zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	jobs *service.JobService,
	payments *service.PaymentService,
	reports *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		contracts: contracts,
		jobs:      jobs,
		payments:  payments,
		reports:   reports,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.health)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/jobs/unpaid", h.listUnpaidJobs)
	protected.POST("/jobs/:job_id/pay", h.payJob)
	protected.POST("/balances/deposit", h.deposit)

	admin := router.Group("/admin")
	admin.GET("/best-profession", h.bestProfession)
	admin.GET("/best-clients", h.bestClients)
	admin.GET("/report/export", h.exportReport)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), principal.ProfileID, contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contracts, err := h.contracts.ListContracts(c.Request.Context(), principal.ProfileID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) listUnpaidJobs(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobs, err := h.jobs.ListUnpaidJobs(c.Request.Context(), principal.ProfileID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) payJob(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobID, err := uuid.Parse(strings.TrimSpace(c.Param("job_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	result, err := h.payments.PayJob(c.Request.Context(), principal.ProfileID, jobID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type depositRequest struct {
	AmountToDeposit *decimal.Decimal `json:"amountToDeposit"`
}

func (h *Handler) deposit(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.AmountToDeposit == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amountToDeposit is required"})
		return
	}

	profile, err := h.payments.Deposit(c.Request.Context(), principal.ProfileID, *req.AmountToDeposit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) bestProfession(c *gin.Context) {
	query, err := parseReportQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	best, err := h.reports.BestProfession(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, best)
}

func (h *Handler) bestClients(c *gin.Context) {
	query, err := parseReportQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	clients, err := h.reports.BestClients(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *Handler) exportReport(c *gin.Context) {
	query, err := parseReportQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "xlsx"))))
	result, err := h.reports.ExportRevenueReport(c.Request.Context(), query, format)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to access this resource"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrDepositLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseReportQuery(c *gin.Context) (service.ReportQuery, error) {
	start, _, err := parseDate(c.Query("start"))
	if err != nil {
		return service.ReportQuery{}, fmt.Errorf("%w: invalid start", service.ErrInvalidInput)
	}
	end, dateOnly, err := parseDate(c.Query("end"))
	if err != nil {
		return service.ReportQuery{}, fmt.Errorf("%w: invalid end", service.ErrInvalidInput)
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Microsecond)
	}

	query := service.ReportQuery{PeriodStart: start, PeriodEnd: end}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return service.ReportQuery{}, fmt.Errorf("%w: invalid limit", service.ErrInvalidInput)
		}
		query.Limit = limit
	}
	return query, nil
}

// parseDate also reports whether raw carried only a date, so callers can
// stretch an inclusive end bound over the whole day.
func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, service.ErrInvalidInput
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, true, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, false, nil
		}
	}
	return time.Time{}, false, service.ErrInvalidInput
}
