package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/discounts"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ValidateDiscount(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Code     string `json:"code" validate:"required"`
		Subtotal int64  `json:"subtotal" validate:"min=0"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || h.validate.Struct(request) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}

	applied, err := h.d.Validate(c.Request.Context(), request.Code, request.Subtotal)
	if err != nil {
		switch {
		case errors.Is(err, discounts.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Mã giảm giá không tồn tại hoặc đã hết hiệu lực"})
		case errors.Is(err, discounts.ErrBelowMinimum):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Đơn hàng chưa đạt giá trị tối thiểu của mã giảm giá"})
		default:
			slog.Error("error validating discount", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra mã giảm giá"})
		}
		return
	}

	c.JSON(http.StatusOK, applied)
}
