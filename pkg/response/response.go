package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON reply. Account and WalletAddress
// are only set by the account endpoints.
type APIResponse struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	WalletAddress string      `json:"walletAddress,omitempty"`
	Account       interface{} `json:"account,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Error         interface{} `json:"error,omitempty"`
	RequestID     string      `json:"request_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

type Option func(*APIResponse)

func WithWalletAddress(addr string) Option {
	return func(r *APIResponse) { r.WalletAddress = addr }
}

func WithAccount(account interface{}) Option {
	return func(r *APIResponse) { r.Account = account }
}

func WithData(data interface{}) Option {
	return func(r *APIResponse) { r.Data = data }
}

// Success writes a success envelope with status (200 when zero).
func Success(ctx *gin.Context, status int, message string, opts ...Option) APIResponse {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse{
		Success:   true,
		Message:   message,
		RequestID: ctx.GetString("request_id"),
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(&resp)
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes a failure envelope with status (400 when zero) and aborts the
// handler chain.
func Error(ctx *gin.Context, status int, message string, err interface{}) APIResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: ctx.GetString("request_id"),
		Timestamp: time.Now(),
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}
