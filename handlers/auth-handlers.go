package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/stores/kafka"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Tên, email và mật khẩu (tối thiểu 8 ký tự) là bắt buộc"})
		return
	}

	user, verifyToken, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email đã được đăng ký"})
			return
		}
		slog.Error("error inserting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Đăng ký thất bại, vui lòng thử lại"})
		return
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", h.appURL, verifyToken)
	h.mail.SendVerification(user.Email, user.Name, verifyURL)

	payload, err := json.Marshal(kafka.AccountCreatedEvent{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		if err := h.ob.Insert(c.Request.Context(), kafka.TopicAccountCreated, user.ID, payload); err != nil {
			slog.Error("error writing account-created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	slog.Info("user registered", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, user.ID))
	c.JSON(http.StatusOK, gin.H{
		"message": "Đăng ký thành công, vui lòng kiểm tra email để xác thực tài khoản",
		"user":    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email và mật khẩu là bắt buộc"})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrBadCredentials):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
		case errors.Is(err, users.ErrNotVerified):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Tài khoản chưa được xác thực email"})
		default:
			slog.Error("error authenticating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Đăng nhập thất bại, vui lòng thử lại"})
		}
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		slog.Error("error generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Đăng nhập thất bại, vui lòng thử lại"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Thiếu mã xác thực"})
		return
	}
	if err := h.u.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, users.ErrBadToken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Mã xác thực không hợp lệ hoặc đã hết hạn"})
			return
		}
		slog.Error("error verifying email", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Xác thực thất bại, vui lòng thử lại"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Xác thực email thành công"})
}

// ForgotPassword answers identically for unknown emails so the response
// never reveals whether an address has an account.
func (h *Handler) ForgotPassword(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || h.validate.Struct(req) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email không hợp lệ"})
		return
	}

	resp := gin.H{"message": "Nếu email tồn tại, hướng dẫn đặt lại mật khẩu đã được gửi"}
	token, name, err := h.u.StartPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			slog.Error("error starting password reset", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.appURL, token)
	h.mail.SendPasswordReset(req.Email, name, resetURL)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || h.validate.Struct(req) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Mật khẩu mới phải có tối thiểu 8 ký tự"})
		return
	}

	if err := h.u.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, users.ErrBadToken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Mã đặt lại không hợp lệ hoặc đã hết hạn"})
			return
		}
		slog.Error("error resetting password", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Đặt lại mật khẩu thất bại, vui lòng thử lại"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đặt lại mật khẩu thành công"})
}
