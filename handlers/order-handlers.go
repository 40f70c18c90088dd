package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/cart"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/discounts"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/orders"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Flat shipping fee in VND; waived above the free-shipping threshold or by a
// free-shipping discount code.
const (
	shippingFee       = 30000
	freeShippingAbove = 500000
)

type checkoutRequest struct {
	Items         []cart.ItemRef `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
	DiscountCode  string         `json:"discount_code"`
	ShippingName  string         `json:"shipping_name" validate:"required"`
	ShippingPhone string         `json:"shipping_phone" validate:"required,min=9,max=12"`
	ShippingAddr  string         `json:"shipping_addr" validate:"required"`
	Note          string         `json:"note"`
	BankCode      string         `json:"bank_code"`
}

// Checkout re-validates the cart, recomputes all money server-side, creates
// the order atomically and, for gateway payments, answers with the VNPay
// redirect URL.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("checkout validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Thiếu thông tin giao hàng hoặc giỏ hàng trống"})
		return
	}
	method := orders.PaymentMethod(req.PaymentMethod)
	if !orders.ValidPaymentMethod(method) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Phương thức thanh toán không hợp lệ"})
		return
	}

	// Stock can change between the cart page and this call; re-run the
	// verdicts and refuse on any invalid item.
	verdicts, err := h.cConf.ValidateItems(c.Request.Context(), &h.p, req.Items)
	if err != nil {
		slog.Error("error validating cart at checkout", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra giỏ hàng"})
		return
	}
	if !cart.AllValid(verdicts) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Một số sản phẩm trong giỏ không còn khả dụng", "results": verdicts})
		return
	}

	// Server-side pricing: the client's figures are never trusted.
	var subtotal int64
	items := make([]orders.OrderItem, 0, len(req.Items))
	for _, ref := range req.Items {
		product, err := h.p.GetProductByID(c.Request.Context(), ref.ProductID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Một số sản phẩm trong giỏ không còn khả dụng"})
			return
		}
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		items = append(items, orders.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  ref.Quantity,
			Image:     image,
		})
		subtotal += product.Price * int64(ref.Quantity)
	}

	var discount int64
	freeShipping := false
	if req.DiscountCode != "" {
		applied, err := h.d.Validate(c.Request.Context(), req.DiscountCode, subtotal)
		if err != nil {
			switch {
			case errors.Is(err, discounts.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Mã giảm giá không tồn tại hoặc đã hết hiệu lực"})
			case errors.Is(err, discounts.ErrBelowMinimum):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Đơn hàng chưa đạt giá trị tối thiểu của mã giảm giá"})
			default:
				slog.Error("error applying discount", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể áp dụng mã giảm giá"})
			}
			return
		}
		discount = applied.Discount
		freeShipping = applied.FreeShipping
	}

	fee := int64(shippingFee)
	if freeShipping || subtotal >= freeShippingAbove {
		fee = 0
	}

	order, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		UserID:        claims.Subject,
		PaymentMethod: method,
		Items:         items,
		Subtotal:      subtotal,
		Discount:      discount,
		DiscountCode:  req.DiscountCode,
		ShippingFee:   fee,
		ShippingName:  req.ShippingName,
		ShippingPhone: req.ShippingPhone,
		ShippingAddr:  req.ShippingAddr,
		Note:          req.Note,
	})
	if err != nil {
		if errors.Is(err, orders.ErrInsufficientStock) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Một số sản phẩm vừa hết hàng, vui lòng kiểm tra lại giỏ"})
			return
		}
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Tạo đơn hàng thất bại"})
		return
	}

	if err := h.cConf.ClearCart(c.Request.Context(), claims.Subject); err != nil {
		// The order exists; an unclosed cart is only cosmetic.
		slog.Error("error clearing cart after checkout", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	resp := gin.H{"order": order}
	// Every non-COD method settles through VNPay; the wallet choice rides
	// along as the bank code so no order can strand in AWAITING_PAYMENT
	// without a link to pay it.
	if method.ViaGateway() {
		payURL, err := h.vnp.CreatePaymentURL(vnpayRequest(order, c.ClientIP(), req.BankCode))
		if err != nil {
			slog.Error("error building payment url", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo liên kết thanh toán"})
			return
		}
		resp["payment_url"] = payURL
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String("OrderNumber", order.OrderNumber))
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}

	list, err := h.o.ListForUser(c.Request.Context(), claims.Subject, limit, offset)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách đơn hàng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) OrderDetail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

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
	// Customers only see their own orders; a foreign id reads as not found.
	if order.UserID != claims.Subject {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đơn hàng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "timeline": logs})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	orderID := c.Param("id")

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || h.validate.Struct(req) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Vui lòng cho biết lý do hủy đơn"})
		return
	}

	order, _, err := h.o.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đơn hàng"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải đơn hàng"})
		return
	}
	if order.UserID != claims.Subject {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đơn hàng"})
		return
	}

	updated, err := h.o.Transition(c.Request.Context(), orderID, orders.StatusCancelled,
		orders.ActorCustomer, claims.Subject, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrCancelNotAllowed), errors.Is(err, orders.ErrIllegalTransition):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Đơn hàng ở trạng thái hiện tại không thể hủy"})
		case errors.Is(err, orders.ErrReasonRequired):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Vui lòng cho biết lý do hủy đơn"})
		default:
			slog.Error("error cancelling order", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Hủy đơn thất bại, vui lòng thử lại"})
		}
		return
	}

	slog.Info("order cancelled", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, orderID))
	c.JSON(http.StatusOK, gin.H{"message": "Đã hủy đơn hàng", "order": updated})
}
