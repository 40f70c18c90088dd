package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetProfile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy tài khoản"})
			return
		}
		slog.Error("error fetching profile", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải thông tin tài khoản"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var update users.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if err := h.validate.Struct(update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Tên là bắt buộc, số điện thoại phải có 9-12 chữ số"})
		return
	}

	user, err := h.u.UpdateProfile(c.Request.Context(), claims.Subject, update)
	if err != nil {
		slog.Error("error updating profile", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Cập nhật thất bại, vui lòng thử lại"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cập nhật thông tin thành công", "user": user})
}

func (h *Handler) Loyalty(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải điểm thưởng"})
		return
	}
	history, err := h.u.LoyaltyHistory(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching loyalty history", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải điểm thưởng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":  user.LoyaltyPoints,
		"tier":    user.LoyaltyTier,
		"history": history,
	})
}
