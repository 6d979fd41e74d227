package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/api"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// credentialsRequest also accepts "username", the field name older clients
// send, as an alias for identifier.
type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r credentialsRequest) identifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Username
}

type validateRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Token      string `json:"token"`
}

func (r validateRequest) identifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Username
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionResponse struct {
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type errorBody struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// RegisterRoutes mounts the account endpoints on router. Routes that are not
// listed as public in api.PublicEndpoints go through mw first.
func (h *Handler) RegisterRoutes(router fiber.Router, mw *AuthMiddleware) {
	h.route(router, fiber.MethodPost, api.AccountRegister, h.Register, mw)
	h.route(router, fiber.MethodPost, api.AccountValidate, h.Validate, mw)
	h.route(router, fiber.MethodPost, api.AccountLogin, h.Login, mw)
	h.route(router, fiber.MethodPost, api.AccountLogout, h.Logout, mw)
	h.route(router, fiber.MethodDelete, api.AccountDelete, h.Delete, mw)
	h.route(router, fiber.MethodGet, api.AccountSession, h.Session, mw)
}

func (h *Handler) route(router fiber.Router, method, path string, handler fiber.Handler, mw *AuthMiddleware) {
	if api.IsPublic(path) {
		router.Add(method, path, handler)
		return
	}
	router.Add(method, path, mw.Handle, handler)
}

// Register godoc
// @Summary      Register an account
// @Description  Creates an unverified account and mails a verification code.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      credentialsRequest  true  "Credentials"
// @Success      201      {object}  messageResponse
// @Failure      400      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /register [post]
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return h.malformed(c, err)
	}

	if _, err := h.service.Register(c.UserContext(), req.identifier(), req.Password); err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(messageResponse{
		Message: "account created, a verification code has been sent",
	})
}

// Validate godoc
// @Summary      Verify an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      validateRequest  true  "Verification code"
// @Success      200      {object}  messageResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /validate [post]
func (h *Handler) Validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.malformed(c, err)
	}

	if _, err := h.service.Validate(c.UserContext(), req.identifier(), req.Token); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(messageResponse{Message: "account verified"})
}

// Login godoc
// @Summary      Log in
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      credentialsRequest  true  "Credentials"
// @Success      200      {object}  loginResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      429      {object}  errorResponse
// @Router       /login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return h.malformed(c, err)
	}

	session, err := h.service.Login(c.UserContext(), req.identifier(), req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(loginResponse{
		Message:   "login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout godoc
// @Summary      Log out
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      credentialsRequest  true  "Identifier"
// @Success      200      {object}  messageResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return h.malformed(c, err)
	}

	if err := h.service.Logout(c.UserContext(), req.identifier()); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(messageResponse{Message: "logout successful"})
}

// Delete godoc
// @Summary      Delete an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      credentialsRequest  true  "Identifier"
// @Success      200      {object}  messageResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /delete [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return h.malformed(c, err)
	}

	if err := h.service.Delete(c.UserContext(), req.identifier()); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(messageResponse{Message: "account deleted"})
}

// Session describes the session attached by AuthMiddleware.
// @Summary      Describe the current session
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /session [get]
func (h *Handler) Session(c *fiber.Ctx) error {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return h.fail(c, newError(KindUnauthorized, "session token is required"))
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return c.JSON(sessionResponse{
		Identifier: claims.Identifier,
		ExpiresAt:  expiresAt,
	})
}

func (h *Handler) malformed(c *fiber.Ctx, err error) error {
	h.log.Warn("malformed request body",
		zap.String("path", c.Path()),
		zap.Error(err))
	return h.fail(c, newError(KindValidation, "malformed request body"))
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	kind := KindOf(err)
	message := "internal server error"
	var svcErr *Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	return c.Status(StatusCode(kind)).JSON(errorResponse{
		Error: errorBody{Kind: kind, Message: message},
	})
}
