package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Role     string `json:"role" validate:"required,oneof=STAFF ADMIN"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Role        string    `json:"role"`
	ID          string    `json:"id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Register creates a new user account. Admins only.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		Role:        string(res.Role),
		ID:          res.ID,
		ExpiresAt:   res.ExpiresAt,
	})
}

// Me returns the identity carried by the caller's token.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}
