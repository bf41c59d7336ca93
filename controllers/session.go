package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"vogueapi/models"
	"vogueapi/services"
	"vogueapi/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type CreateSessionIn struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type CreateSessionOut struct {
	Token   string       `json:"token"`
	Session session.View `json:"session"`
}

type UpdateProfileIn struct {
	Occasion     *string `json:"occasion" validate:"omitempty,occasion"`
	Gender       *string `json:"gender" validate:"omitempty,gender"`
	Generation   *string `json:"generation" validate:"omitempty,generation"`
	BodyType     *string `json:"body_type" validate:"omitempty,bodytype"`
	Complexion   *string `json:"complexion" validate:"omitempty,complexion"`
	Fabric       *string `json:"fabric" validate:"omitempty,fabric"`
	CountryStyle *string `json:"country_style" validate:"omitempty,max=100"`
	Weather      *string `json:"weather" validate:"omitempty,max=100"`
}

type LocationIn struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type LocationOut struct {
	Applied bool         `json:"applied"`
	Session session.View `json:"session"`
}

type AnalyzeOut struct {
	Analysis *models.PhotoAnalysisResult `json:"analysis"`
	Session  session.View                `json:"session"`
}

type SessionController struct {
	Sessions       *session.Store
	Geocoder       services.GeocodeProvider
	JWTSecret      string
	MaxPhotoBytes  int64
	GeocodeTimeout time.Duration
}

func (controller *SessionController) SessionRoutes(g *echo.Group) {
	g.GET("", controller.GetSession)
	g.POST("/start", controller.Start)
	g.PATCH("/profile", controller.UpdateProfile)
	g.POST("/location", controller.Location)
	g.POST("/analyze", controller.AnalyzePhoto)
	g.POST("/submit", controller.Submit)
	g.POST("/cancel", controller.Cancel)
	g.POST("/refine", controller.Refine)
	g.GET("/image", controller.Image)
}

func currentSession(c echo.Context) (*session.Session, bool) {
	sess, ok := c.Get("currentSession").(*session.Session)
	return sess, ok
}

// snapshot returns the view and marks its notice as shown.
func snapshot(sess *session.Session) session.View {
	return sess.SnapshotAndTakeNotice()
}

func waitRequested(c echo.Context) bool {
	return strings.EqualFold(c.QueryParam("wait"), "true")
}

// detached keeps request-scoped values such as the logger but outlives the request.
func detached(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func (controller *SessionController) CreateSession(c echo.Context) error {
	var req CreateSessionIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess := controller.Sessions.Create()
	token, err := GenerateSessionToken(sess.ID, controller.JWTSecret, 0)
	if err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msgf("[Session: %s] Error when signing token", sess.ID)
		controller.Sessions.Delete(sess.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not start a session"})
	}

	if req.Latitude != nil && req.Longitude != nil {
		go sess.EnrichLocation(detached(c), controller.Geocoder, *req.Latitude, *req.Longitude, controller.GeocodeTimeout)
	}
	return c.JSON(http.StatusCreated, CreateSessionOut{Token: token, Session: snapshot(sess)})
}

func (controller *SessionController) GetSession(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) Start(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	if err := sess.Start(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) UpdateProfile(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	var req UpdateProfileIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	_, err := sess.UpdateProfile(session.ProfileUpdate{
		Occasion:     req.Occasion,
		Gender:       req.Gender,
		Generation:   req.Generation,
		BodyType:     req.BodyType,
		Complexion:   req.Complexion,
		Fabric:       req.Fabric,
		CountryStyle: req.CountryStyle,
		Weather:      req.Weather,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) Location(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	var req LocationIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if !waitRequested(c) {
		go sess.EnrichLocation(detached(c), controller.Geocoder, *req.Latitude, *req.Longitude, controller.GeocodeTimeout)
		return c.JSON(http.StatusAccepted, LocationOut{Session: snapshot(sess)})
	}
	applied := sess.EnrichLocation(c.Request().Context(), controller.Geocoder, *req.Latitude, *req.Longitude, controller.GeocodeTimeout)
	return c.JSON(http.StatusOK, LocationOut{Applied: applied, Session: snapshot(sess)})
}

func (controller *SessionController) AnalyzePhoto(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "photo file is required"})
	}
	if controller.MaxPhotoBytes > 0 && file.Size > controller.MaxPhotoBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "photo is too large"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "could not read photo"})
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "could not read photo"})
	}

	mimeType := file.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(data)
	}

	result, err := sess.AnalyzePhoto(c.Request().Context(), data, mimeType)
	if errors.Is(err, models.ErrStaleResult) {
		return c.JSON(http.StatusConflict, AnalyzeOut{Analysis: result, Session: snapshot(sess)})
	}
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, AnalyzeOut{Analysis: result, Session: snapshot(sess)})
}

// Submit starts a generation. The result is produced in the background unless wait=true.
func (controller *SessionController) Submit(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	sub, err := sess.BeginSubmit(detached(c))
	if err != nil {
		return errorResponse(c, err)
	}

	if !waitRequested(c) {
		go func() {
			_ = sess.CompleteSubmit(sub)
		}()
		return c.JSON(http.StatusAccepted, snapshot(sess))
	}
	if err := sess.CompleteSubmit(sub); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) Cancel(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	if err := sess.Cancel(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) Refine(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	if err := sess.Refine(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, snapshot(sess))
}

func (controller *SessionController) Image(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	image, ok := sess.Image()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no illustration for this session"})
	}
	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return c.Blob(http.StatusOK, mimeType, image.Data)
}
