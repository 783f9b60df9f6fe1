package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Cristi-la/EOL-Net/internal/api/dto"
	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/service"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// AdminHandler exposes admin login and token administration.
type AdminHandler struct {
	auth   *service.AuthService
	tokens *service.TokenService
	now    func() time.Time
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, tokenService *service.TokenService) *AdminHandler {
	return &AdminHandler{auth: authService, tokens: tokenService, now: time.Now}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.UserSummary{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListTokens handles GET /admin/tokens.
func (h *AdminHandler) ListTokens(c *fiber.Ctx) error {
	tokens, err := h.tokens.List(c.UserContext())
	if err != nil {
		return err
	}

	now := h.now()
	data := make([]dto.TokenResponse, 0, len(tokens))
	for i := range tokens {
		data = append(data, dto.NewTokenResponse(&tokens[i], now))
	}
	return c.JSON(fiber.Map{"data": data})
}

// CreateToken handles POST /admin/tokens. The credential in the response is shown
// once and cannot be retrieved later.
func (h *AdminHandler) CreateToken(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issued, err := h.tokens.Create(c.UserContext(), adminActor(principal), req.Input(principal.User.ID))
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.CreatedTokenResponse{
			TokenResponse: dto.NewTokenResponse(issued.Token, h.now()),
			Credential:    issued.Credential,
			ExpiresAt:     issued.ExpiresAt,
		},
	})
}

// DeleteToken handles DELETE /admin/tokens/:id.
func (h *AdminHandler) DeleteToken(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tokens.Delete(c.UserContext(), adminActor(principal), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func adminActor(principal *auth.Principal) events.Actor {
	return events.Actor{Kind: events.ActorAdmin, ID: principal.User.ID}
}
