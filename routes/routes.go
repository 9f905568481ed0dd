package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/maisonarome/storefront/controllers"
	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/realtime"
	"github.com/maisonarome/storefront/services"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Auth     *controllers.AuthController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Order    *controllers.OrderController
	Coupon   *controllers.CouponController
	Review   *controllers.ReviewController
	Wishlist *controllers.WishlistController
	Address  *controllers.AddressController
	Admin    *controllers.AdminController
	Realtime *realtime.Handler
}

// Register mounts every route on the engine.
func Register(r *gin.Engine, c Controllers, tokens *services.TokenService) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rate.Every(time.Minute/300), 100))

	// Account and session.
	auth := api.Group("/auth")
	auth.POST("/register", middleware.AuthRateLimit(), c.Auth.Register)
	auth.POST("/verify", c.Auth.VerifyEmail)
	auth.POST("/login", middleware.AuthRateLimit(), c.Auth.Login)
	auth.POST("/refresh", c.Auth.Refresh)
	auth.POST("/logout", c.Auth.Logout)
	auth.POST("/forgot-password", middleware.AuthRateLimit(), c.Auth.ForgotPassword)
	auth.POST("/reset-password", middleware.AuthRateLimit(), c.Auth.ResetPassword)
	auth.GET("/me", middleware.RequireAuth(tokens), c.Auth.Profile)

	// Catalogue, public.
	api.GET("/products", c.Product.List)
	api.GET("/products/:id", c.Product.Get)
	api.GET("/products/:id/reviews", c.Review.ListByProduct)

	// Cart, shared by guests (X-Session-Token) and users.
	cart := api.Group("/cart")
	cart.Use(middleware.OptionalAuth(tokens))
	cart.GET("", c.Cart.Get)
	cart.DELETE("", c.Cart.Clear)
	cart.POST("/items", c.Cart.AddItem)
	cart.PATCH("/items/:id", c.Cart.UpdateItem)
	cart.DELETE("/items/:id", c.Cart.RemoveItem)

	// Checkout, authenticated.
	checkout := api.Group("/checkout")
	checkout.Use(middleware.RequireAuth(tokens))
	checkout.POST("/shipping-options", c.Checkout.ShippingOptions)
	checkout.GET("/payment-methods", c.Checkout.PaymentMethods)
	checkout.POST("/coupon", c.Checkout.ApplyCoupon)
	checkout.POST("/place-order", c.Checkout.PlaceOrder)

	// Payment gateway callbacks, unauthenticated but signature-checked.
	api.POST("/webhooks/stripe", c.Checkout.StripeWebhook)

	// Orders.
	orders := api.Group("/orders")
	orders.Use(middleware.RequireAuth(tokens))
	orders.GET("", c.Order.List)
	orders.GET("/:id", c.Order.Get)
	orders.POST("/:id/cancel", c.Order.Cancel)
	orders.GET("/:id/track", c.Order.Track)

	// Reviews.
	reviews := api.Group("/reviews")
	reviews.Use(middleware.RequireAuth(tokens))
	reviews.POST("", c.Review.Submit)
	reviews.POST("/:id/helpful", c.Review.MarkHelpful)
	reviews.POST("/:id/report", c.Review.Report)
	reviews.DELETE("/:id", c.Review.Delete)

	// Wishlist.
	wishlist := api.Group("/wishlist")
	wishlist.Use(middleware.RequireAuth(tokens))
	wishlist.GET("", c.Wishlist.List)
	wishlist.GET("/:productId", c.Wishlist.Check)
	wishlist.POST("", c.Wishlist.Add)
	wishlist.POST("/:productId/toggle", c.Wishlist.Toggle)
	wishlist.DELETE("/:productId", c.Wishlist.Remove)

	// Saved addresses.
	addresses := api.Group("/addresses")
	addresses.Use(middleware.RequireAuth(tokens))
	addresses.GET("", c.Address.List)
	addresses.POST("", c.Address.Create)
	addresses.PUT("/:id", c.Address.Update)
	addresses.DELETE("/:id", c.Address.Delete)
	addresses.POST("/:id/default", c.Address.SetDefault)

	// Realtime channel.
	api.GET("/ws", c.Realtime.Serve)

	// Admin.
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(tokens), middleware.RequireAdmin())
	admin.GET("/dashboard", c.Admin.Dashboard)
	admin.GET("/reports/sales", c.Admin.SalesReport)
	admin.GET("/reports/orders.csv", c.Admin.ExportOrders)
	admin.GET("/users", c.Admin.ListUsers)

	admin.POST("/products", c.Product.Create)
	admin.PUT("/products/:id", c.Product.Update)
	admin.DELETE("/products/:id", c.Product.Delete)

	admin.GET("/orders", c.Order.AdminList)
	admin.GET("/orders/:id", c.Order.AdminGet)
	admin.PATCH("/orders/:id/status", c.Order.UpdateStatus)

	admin.POST("/coupons", c.Coupon.Create)
	admin.GET("/coupons", c.Coupon.List)
	admin.GET("/coupons/:code", c.Coupon.Get)
	admin.DELETE("/coupons/:code", c.Coupon.Deactivate)
}
