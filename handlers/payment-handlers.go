package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/orders"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/vnpay"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func vnpayRequest(o orders.Order, clientIP, bankCode string) vnpay.PaymentRequest {
	return vnpay.PaymentRequest{
		TxnRef:    o.OrderNumber,
		Amount:    o.Total,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", o.OrderNumber),
		IPAddr:    clientIP,
		BankCode:  bankCode,
	}
}

// queryParams flattens the gin query string into the map the signature
// verifier works over.
func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

// VNPayReturn handles the browser redirect back from the gateway. It only
// reports the outcome to the user; the IPN is what settles the order.
func (h *Handler) VNPayReturn(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	params := queryParams(c)

	if !h.vnp.VerifyReturn(params) {
		slog.Error("vnpay return signature mismatch", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Chữ ký không hợp lệ"})
		return
	}

	code := vnpay.ParseResponseCode(params["vnp_ResponseCode"])
	c.JSON(http.StatusOK, gin.H{
		"order_number": params["vnp_TxnRef"],
		"success":      code.Success(),
		"message":      code.Message(),
	})
}

// VNPayIPN is the server-to-server settlement callback. The response body
// follows the gateway convention: {RspCode, Message}, and the signature is
// the sole authenticity gate.
func (h *Handler) VNPayIPN(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	params := queryParams(c)

	if !h.vnp.VerifyReturn(params) {
		slog.Error("vnpay ipn signature mismatch", slog.String(logkey.TraceID, traceId))
		c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNInvalidSig, "Message": "Invalid signature"})
		return
	}

	orderNumber := params["vnp_TxnRef"]
	amountRaw, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNInvalidAmount, "Message": "Invalid amount"})
		return
	}
	amount := amountRaw / 100 // gateway sends VND x100

	code := vnpay.ParseResponseCode(params["vnp_ResponseCode"])
	if !code.Success() {
		// The payment failed on the gateway side; nothing to settle.
		slog.Info("vnpay ipn reported failure", slog.String(logkey.TraceID, traceId),
			slog.String("OrderNumber", orderNumber), slog.String("ResponseCode", params["vnp_ResponseCode"]))
		c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNOK, "Message": "Confirmed"})
		return
	}

	_, err = h.o.MarkPaid(c.Request.Context(), orderNumber, amount, params["vnp_TransactionNo"])
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNOrderNotFound, "Message": "Order not found"})
		case errors.Is(err, orders.ErrAlreadyPaid):
			c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNAlreadyUpdated, "Message": "Order already confirmed"})
		case errors.Is(err, orders.ErrAmountMismatch):
			c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNInvalidAmount, "Message": "Invalid amount"})
		default:
			slog.Error("error settling vnpay payment", slog.String(logkey.TraceID, traceId),
				slog.String("OrderNumber", orderNumber), slog.String(logkey.ERROR, err.Error()))
			c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNUnknownError, "Message": "Unknown error"})
		}
		return
	}

	slog.Info("vnpay payment settled", slog.String(logkey.TraceID, traceId), slog.String("OrderNumber", orderNumber))
	c.JSON(http.StatusOK, gin.H{"RspCode": vnpay.IPNOK, "Message": "Confirmed"})
}
