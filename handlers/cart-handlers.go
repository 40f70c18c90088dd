package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/cart"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/discounts"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/products"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if request.ProductID == "" || request.Quantity <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Sản phẩm và số lượng phải hợp lệ"})
		return
	}

	product, err := h.p.GetProductByID(c.Request.Context(), request.ProductID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy sản phẩm"})
			return
		}
		slog.Error("error fetching product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra sản phẩm"})
		return
	}
	if !product.IsActive {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Sản phẩm đã ngừng kinh doanh"})
		return
	}
	if request.Quantity > product.Stock {
		slog.Error("insufficient stock", slog.String(logkey.TraceID, traceId),
			slog.String("ProductID", request.ProductID), slog.Int("Requested", request.Quantity), slog.Int("Available", product.Stock))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Không đủ hàng trong kho"})
		return
	}

	if err := h.cConf.AddToCartDB(c.Request.Context(), userId, request.ProductID, request.Quantity, product.Stock); err != nil {
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("ProductID", request.ProductID), slog.Int("Quantity", request.Quantity))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Thêm vào giỏ hàng thất bại"})
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ProductID", request.ProductID), slog.Int("Quantity", request.Quantity), slog.String(logkey.UserID, userId))
	c.JSON(http.StatusOK, gin.H{"message": "Đã thêm sản phẩm vào giỏ hàng"})
}

func (h *Handler) GetActiveCartItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cartResponse, err := h.cConf.GetActiveCartItems(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching active cart items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải giỏ hàng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": cartResponse.Items, "subtotal": cartResponse.Subtotal})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	productID := c.Param("productID")

	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Quantity < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Số lượng không hợp lệ"})
		return
	}

	if err := h.cConf.UpdateQuantity(c.Request.Context(), claims.Subject, productID, request.Quantity); err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Giỏ hàng trống"})
			return
		}
		slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Cập nhật giỏ hàng thất bại"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã cập nhật giỏ hàng"})
}

// ClearCart empties the active cart in one call instead of removing items
// one by one.
func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.cConf.ClearCart(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error clearing cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa giỏ hàng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa giỏ hàng"})
}

// ValidateCart classifies every submitted item against live inventory and
// re-checks any applied discount against the new subtotal, so the client can
// drop a code that no longer qualifies and explain why.
func (h *Handler) ValidateCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Items        []cart.ItemRef `json:"items" validate:"required,min=1,dive"`
		DiscountCode string         `json:"discount_code"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Danh sách sản phẩm không hợp lệ"})
		return
	}

	verdicts, err := h.cConf.ValidateItems(c.Request.Context(), &h.p, request.Items)
	if err != nil {
		slog.Error("error validating cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra giỏ hàng"})
		return
	}

	resp := gin.H{"results": verdicts, "valid": cart.AllValid(verdicts)}

	if request.DiscountCode != "" {
		var subtotal int64
		for _, ref := range request.Items {
			product, err := h.p.GetProductByID(c.Request.Context(), ref.ProductID)
			if err == nil {
				subtotal += product.Price * int64(ref.Quantity)
			}
		}
		applied, err := h.d.Validate(c.Request.Context(), request.DiscountCode, subtotal)
		if err == nil {
			resp["discount"] = applied
		} else if message, removed := discounts.RemovalReason(err); removed {
			resp["discount_removed"] = true
			resp["discount_message"] = message
		} else {
			slog.Error("error re-validating discount", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	c.JSON(http.StatusOK, resp)
}
