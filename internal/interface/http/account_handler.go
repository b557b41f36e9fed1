package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
	"github.com/oksasatya/go-wallet-accounts/pkg/response"
)

const (
	actionCreate = "create"
	actionUpdate = "update"
)

// AccountHandler serves the account endpoints.
type AccountHandler struct {
	Svc    *application.AccountService
	Logger *logrus.Logger
}

func NewAccountHandler(svc *application.AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger}
}

// accountRequest is the union of the create and update payloads.
type accountRequest struct {
	Action              string      `json:"action"`
	Username            string      `json:"username"`
	Email               *string     `json:"email"`
	Password            string      `json:"password"`
	NewUsername         *string     `json:"newUsername"`
	OldPassword         *string     `json:"oldPassword"`
	NewPassword         *string     `json:"newPassword"`
	DailySendLimit      *FlexNumber `json:"dailySendLimit"`
	SingleTxLimit       *FlexNumber `json:"singleTxLimit"`
	TimeLimitDate       *string     `json:"timeLimitDate"`
	FundraiserTimeLimit *string     `json:"fundraiserTimeLimit"`
}

// Handle dispatches POST /api/accounts on the action field; an omitted action
// means create. A body that is not a non-empty JSON object is invalid data.
func (h *AccountHandler) Handle(c *gin.Context) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&fields, binding.JSON); err != nil || len(fields) == 0 {
		response.Error(c, http.StatusBadRequest, "Invalid data", nil)
		return
	}
	var req accountRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid data", nil)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "", actionCreate:
		h.create(c, req)
	case actionUpdate:
		h.update(c, req)
	default:
		response.Error(c, http.StatusBadRequest, "Unsupported action", nil)
	}
}

func (h *AccountHandler) create(c *gin.Context, req accountRequest) {
	res, err := h.Svc.Create(c.Request.Context(), application.CreateAccountInput{
		Username: req.Username,
		Email:    deref(req.Email),
		Password: req.Password,
		IP:       middleware.ClientIP(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Account created successfully", response.WithWalletAddress(res.WalletAddress))
}

func (h *AccountHandler) update(c *gin.Context, req accountRequest) {
	view, err := h.Svc.Update(c.Request.Context(), application.UpdateAccountInput{
		Username:            req.Username,
		NewUsername:         req.NewUsername,
		Email:               req.Email,
		OldPassword:         req.OldPassword,
		NewPassword:         req.NewPassword,
		DailySendLimit:      req.DailySendLimit.Float64Ptr(),
		SingleTxLimit:       req.SingleTxLimit.Float64Ptr(),
		TimeLimitDate:       req.TimeLimitDate,
		FundraiserTimeLimit: req.FundraiserTimeLimit,
		IP:                  middleware.ClientIP(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Account updated successfully", response.WithAccount(view))
}

// Get handles GET /api/accounts/:username.
func (h *AccountHandler) Get(c *gin.Context) {
	view, err := h.Svc.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Account found", response.WithAccount(view))
}

// Search handles GET /api/accounts/search?q=&size=.
func (h *AccountHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, http.StatusBadRequest, "Query is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Search results", response.WithData(hits))
}

// Health handles GET /api/health.
func (h *AccountHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, "ok")
}

// Preflight answers OPTIONS /api/accounts with an empty 200.
func (h *AccountHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// MethodNotAllowed answers requests whose route exists under another method.
func MethodNotAllowed(c *gin.Context) {
	response.Error(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

func (h *AccountHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	var details interface{}
	var se *application.Error
	if errors.As(err, &se) && len(se.Details) > 0 {
		details = se.Details
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		helpers.LogError(h.Logger, "account request failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
	}
	response.Error(c, status, application.Message(err), details)
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
