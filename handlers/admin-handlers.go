package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/orders"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	status := orders.Status(c.Query("status"))
	if status != "" && !orders.ValidStatus(status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Trạng thái lọc không hợp lệ"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}

	list, err := h.o.ListAll(c.Request.Context(), status, limit, offset)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách đơn hàng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) AdminOrderDetail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	order, logs, err := h.o.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đơn hàng"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải đơn hàng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "timeline": logs})
}

// AdminUpdateStatus moves an order along the workflow. Illegal jumps are
// refused; the transition table is the contract, not the admin dropdown.
func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	orderID := c.Param("id")

	var req struct {
		Status string `json:"status" validate:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || h.validate.Struct(req) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	to := orders.Status(req.Status)
	if !orders.ValidStatus(to) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Trạng thái không hợp lệ"})
		return
	}

	updated, err := h.o.Transition(c.Request.Context(), orderID, to, orders.ActorAdmin, claims.Subject, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đơn hàng"})
		case errors.Is(err, orders.ErrReasonRequired):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Hủy đơn cần có lý do"})
		case errors.Is(err, orders.ErrIllegalTransition):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Không thể chuyển sang trạng thái này"})
		default:
			slog.Error("error updating order status", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Cập nhật trạng thái thất bại"})
		}
		return
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, orderID), slog.String("Status", req.Status))
	c.JSON(http.StatusOK, gin.H{"message": "Đã cập nhật trạng thái đơn hàng", "order": updated})
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}

	list, err := h.u.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("error listing users", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách người dùng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *Handler) AdminDisableUser(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID := c.Param("id")

	if err := h.u.DisableUser(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng"})
		case errors.Is(err, users.ErrIsAdmin):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không thể vô hiệu hóa tài khoản quản trị"})
		default:
			slog.Error("error disabling user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Vô hiệu hóa thất bại"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã vô hiệu hóa tài khoản"})
}

// AdminDeleteUser enforces the deletion guard: admins are never deletable,
// and a user owning orders must be disabled instead of deleted. When the
// guard refuses, no row has been touched.
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID := c.Param("id")

	if err := h.u.DeleteUser(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng"})
		case errors.Is(err, users.ErrIsAdmin):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không thể xóa tài khoản quản trị"})
		case errors.Is(err, users.ErrHasOrders):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Người dùng đã có đơn hàng, hãy vô hiệu hóa tài khoản thay vì xóa",
			})
		default:
			slog.Error("error deleting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Xóa người dùng thất bại"})
		}
		return
	}

	slog.Info("user deleted", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userID))
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa người dùng"})
}
