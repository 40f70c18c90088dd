package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/cart"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/discounts"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/email"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/notifications"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/orders"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/outbox"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/products"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/vnpay"
	"github.com/Kuronil/mephuongthitheo-sub000/middleware"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/ctxmanage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	keys     *auth.Keys
	u        users.Conf
	p        products.Conf
	cConf    cart.Conf
	d        discounts.Conf
	o        *orders.Conf
	n        notifications.Conf
	ob       outbox.Conf
	vnp      *vnpay.Conf
	mail     *email.Sender
	validate *validator.Validate
	appURL   string
}

type Deps struct {
	Keys          *auth.Keys
	Users         users.Conf
	Products      products.Conf
	Cart          cart.Conf
	Discounts     discounts.Conf
	Orders        *orders.Conf
	Notifications notifications.Conf
	Outbox        outbox.Conf
	VNPay         *vnpay.Conf
	Mail          *email.Sender
	AppURL        string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		keys:     d.Keys,
		u:        d.Users,
		p:        d.Products,
		cConf:    d.Cart,
		d:        d.Discounts,
		o:        d.Orders,
		n:        d.Notifications,
		ob:       d.Outbox,
		vnp:      d.VNPay,
		mail:     d.Mail,
		validate: validator.New(),
		appURL:   d.AppURL,
	}
}

func API(deps Deps) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(deps.Keys)
	if err != nil {
		panic(err)
	}
	h := NewHandler(deps)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	api := r.Group("/api")
	{
		// Public surface.
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/verify-email", h.VerifyEmail)
		api.POST("/auth/forgot-password", h.ForgotPassword)
		api.POST("/auth/reset-password", h.ResetPassword)

		api.GET("/categories", h.ListCategories)
		api.GET("/products", h.ListProducts)
		api.GET("/products/stock/:productID", h.ProductStock)
		api.GET("/products/:slug", h.GetProduct)

		api.GET("/payment/vnpay/return", h.VNPayReturn)
		api.GET("/payment/vnpay/ipn", h.VNPayIPN)
	}

	account := r.Group("/api")
	account.Use(m.Authentication())
	{
		account.GET("/account/profile", m.Authorize(h.GetProfile, auth.RoleUser))
		account.PUT("/account/profile", m.Authorize(h.UpdateProfile, auth.RoleUser))
		account.GET("/account/loyalty", m.Authorize(h.Loyalty, auth.RoleUser))

		account.POST("/cart/add-item", m.Authorize(h.AddToCart, auth.RoleUser))
		account.GET("/cart/items", m.Authorize(h.GetActiveCartItems, auth.RoleUser))
		account.PUT("/cart/items/:productID", m.Authorize(h.UpdateCartItem, auth.RoleUser))
		account.DELETE("/cart", m.Authorize(h.ClearCart, auth.RoleUser))
		account.POST("/cart/validate", m.Authorize(h.ValidateCart, auth.RoleUser))

		account.POST("/discounts/validate", m.Authorize(h.ValidateDiscount, auth.RoleUser))

		account.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
		account.GET("/account/orders", m.Authorize(h.MyOrders, auth.RoleUser))
		account.GET("/account/orders/:id", m.Authorize(h.OrderDetail, auth.RoleUser))
		account.POST("/account/orders/:id/cancel", m.Authorize(h.CancelOrder, auth.RoleUser))

		account.GET("/notifications", m.Authorize(h.ListNotifications, auth.RoleUser))
		account.PUT("/notifications/:id/read", m.Authorize(h.MarkNotificationRead, auth.RoleUser))
		account.PUT("/notifications/read-all", m.Authorize(h.MarkAllNotificationsRead, auth.RoleUser))
	}

	admin := r.Group("/api/admin")
	admin.Use(m.Authentication())
	{
		admin.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		admin.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		admin.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		admin.PUT("/inventory/:id", m.Authorize(h.AdjustStock, auth.RoleAdmin))
		admin.GET("/inventory/low-stock", m.Authorize(h.LowStock, auth.RoleAdmin))

		admin.GET("/orders", m.Authorize(h.AdminListOrders, auth.RoleAdmin))
		admin.GET("/orders/:id", m.Authorize(h.AdminOrderDetail, auth.RoleAdmin))
		admin.PUT("/orders/:id/status", m.Authorize(h.AdminUpdateStatus, auth.RoleAdmin))

		admin.GET("/users", m.Authorize(h.AdminListUsers, auth.RoleAdmin))
		admin.PUT("/users/:id/disable", m.Authorize(h.AdminDisableUser, auth.RoleAdmin))
		admin.DELETE("/users/:id", m.Authorize(h.AdminDeleteUser, auth.RoleAdmin))
	}

	return r
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
