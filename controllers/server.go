package controllers

import (
	"net/http"
	"time"

	"vogueapi/languageutil"
	"vogueapi/metrics"
	"vogueapi/models"
	"vogueapi/services"
	"vogueapi/session"
	"vogueapi/tasks"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("occasion", models.ValidateOccasion)
	v.RegisterValidation("gender", models.ValidateGender)
	v.RegisterValidation("generation", models.ValidateGeneration)
	v.RegisterValidation("bodytype", models.ValidateBodyType)
	v.RegisterValidation("complexion", models.ValidateComplexion)
	v.RegisterValidation("fabric", models.ValidateFabric)
	return &CustomValidator{validator: v}
}

// Dependencies are the collaborators shared by all handlers. DB, Enqueuer and URLCache may
// be nil, in which case saved looks are unavailable.
type Dependencies struct {
	DB       *gorm.DB
	Sessions *session.Store
	Geocoder services.GeocodeProvider
	URLCache services.URLCacheServiceProvider
	Enqueuer tasks.Enqueuer
	Metrics  *metrics.Registry

	JWTSecret      string
	MaxPhotoBytes  int64
	GeocodeTimeout time.Duration
}

func SetupServer(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deps.DB != nil {
				c.Set("__db", deps.DB)
			}
			if deps.Enqueuer != nil {
				c.Set("__asynqclient", deps.Enqueuer)
			}
			return next(c)
		}
	})
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(RequestLogger())
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	e.GET("/options", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.NewOptionCatalog(
			languageutil.QuickPickRegions, services.IllustrationAspectRatio, deps.MaxPhotoBytes,
		))
	})

	sessionController := SessionController{
		Sessions:       deps.Sessions,
		Geocoder:       deps.Geocoder,
		JWTSecret:      deps.JWTSecret,
		MaxPhotoBytes:  deps.MaxPhotoBytes,
		GeocodeTimeout: deps.GeocodeTimeout,
	}
	e.POST("/session", sessionController.CreateSession)

	sessionGroup := e.Group("/session", echojwt.JWT([]byte(deps.JWTSecret)), SessionMiddleware(deps.Sessions))
	sessionController.SessionRoutes(sessionGroup)

	looksController := LooksController{URLCache: deps.URLCache}
	sessionGroup.POST("/looks", looksController.SaveLook)
	e.GET("/looks/:id", looksController.GetLook)

	return e
}
