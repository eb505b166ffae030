package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tienda/internal/auth"
	"tienda/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	tokens *auth.TokenService,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	gate := auth.Middleware(tokens)

	// User routes
	user := api.Group("/user")
	user.POST("/register", userHandler.Register)
	user.POST("/login", userHandler.Login)
	user.GET("/verifytoken", userHandler.VerifyToken, gate)
	user.PUT("/update", userHandler.UpdateUser, gate)

	// Product routes; reads are public, mutations require a valid session
	product := api.Group("/product")
	product.POST("/create", productHandler.CreateProduct, gate)
	product.GET("/readall", productHandler.ReadAllProducts)
	product.GET("/readone/:id", productHandler.ReadOneProduct)
	product.PUT("/update/:id", productHandler.UpdateProduct, gate)
	product.DELETE("/delete/:id", productHandler.DeleteProduct, gate)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
