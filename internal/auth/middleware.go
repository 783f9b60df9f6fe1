package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

const (
	claimsKey      = "auth_claims"
	authContextKey = "auth_context"
	principalKey   = "auth_principal"
)

// DecisionRecorder receives the outcome of every gate check.
type DecisionRecorder interface {
	RecordDecision(stage, outcome string)
}

// Gate check stages reported to a DecisionRecorder.
const (
	StageRequest = "request"
	StageObject  = "object"
)

var errMalformedHeader = errors.New("invalid authorization header")

// bearerToken extracts the bearer credential. ok is false when no Authorization
// header was sent.
func bearerToken(c *fiber.Ctx) (token string, ok bool, err error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, errMalformedHeader
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// CredentialMiddleware verifies the signature and expiry of a presented API
// credential and stores its claims. Requests without a credential pass through as
// anonymous; a credential that fails verification is rejected on every verb.
func CredentialMiddleware(credentials *CredentialManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, present, err := bearerToken(c)
		if !present {
			return c.Next()
		}
		if err != nil {
			return apperrors.NewUnauthorized(err.Error())
		}

		claims, err := credentials.Parse(raw)
		if err != nil {
			logger.Debug("credential rejected", zap.String("path", c.Path()), zap.Error(err))
			return apperrors.NewUnauthorized("invalid or expired credential")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// GateMiddleware runs the list-level authorization check. Write verbs resolve the
// credential against the token store first; read verbs never touch the store.
func GateMiddleware(authn *Authenticator, gate *Gate, recorder DecisionRecorder, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()
		if IsSafeMethod(method) {
			return c.Next()
		}

		var ac *AuthContext
		if claims, ok := ClaimsFromContext(c); ok {
			resolved, err := authn.Resolve(c.UserContext(), claims)
			if err != nil {
				recordDecision(recorder, StageRequest, err)
				logDenial(logger, c, err)
				return err
			}
			ac = resolved
			c.Locals(authContextKey, ac)
		}

		body := c.Body()
		if len(bytes.TrimSpace(body)) > 0 && !c.Is("json") {
			return apperrors.NewUnsupportedMediaType(fiber.MIMEApplicationJSON)
		}

		var vendor any
		if method == fiber.MethodPost {
			v, err := payloadVendor(c.App().Config().JSONDecoder, body)
			if err != nil {
				return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
			}
			vendor = v
		}

		err := gate.CheckRequest(method, ac, vendor)
		recordDecision(recorder, StageRequest, err)
		if err != nil {
			logDenial(logger, c, err)
			return err
		}
		return c.Next()
	}
}

// CheckObject runs the object-level gate check for the current request and records
// the decision.
func CheckObject(c *fiber.Ctx, gate *Gate, recorder DecisionRecorder, objectVendor *int64) error {
	ac, _ := AuthContextFromContext(c)
	err := gate.CheckObject(c.Method(), ac, objectVendor)
	recordDecision(recorder, StageObject, err)
	return err
}

// ClaimsFromContext returns the verified credential claims, if any.
func ClaimsFromContext(c *fiber.Ctx) (*CredentialClaims, bool) {
	claims, ok := c.Locals(claimsKey).(*CredentialClaims)
	return claims, ok && claims != nil
}

// AuthContextFromContext returns the resolved auth context set by GateMiddleware.
func AuthContextFromContext(c *fiber.Ctx) (*AuthContext, bool) {
	ac, ok := c.Locals(authContextKey).(*AuthContext)
	return ac, ok && ac != nil
}

// payloadVendor returns the "vendor" field of a JSON body, or nil when the body is
// empty or the field is absent or null. decode must be the decoder the handlers use
// so that key matching and duplicate keys resolve to the same value.
func payloadVendor(decode utils.JSONUnmarshal, body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var payload struct {
		Vendor json.RawMessage `json:"vendor"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Vendor) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload.Vendor))
	dec.UseNumber()
	var vendor any
	if err := dec.Decode(&vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func recordDecision(recorder DecisionRecorder, stage string, err error) {
	if recorder == nil {
		return
	}
	outcome := "allow"
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = apperrors.CodeInternal
		}
		outcome = strings.ToLower(code)
	}
	recorder.RecordDecision(stage, outcome)
}

func logDenial(logger *zap.Logger, c *fiber.Ctx, err error) {
	logger.Debug("request denied",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("reason", apperrors.ToDomainError(err).Message))
}

// Principal represents the authenticated admin-surface caller.
type Principal struct {
	User *domain.User
}

// UserLookup loads session subjects.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AdminMiddleware validates admin session tokens and loads principals.
type AdminMiddleware struct {
	sessions *SessionManager
	users    UserLookup
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(sessions *SessionManager, users UserLookup) *AdminMiddleware {
	return &AdminMiddleware{sessions: sessions, users: users}
}

// Handle enforces session authentication for admin routes.
func (m *AdminMiddleware) Handle(c *fiber.Ctx) error {
	raw, present, err := bearerToken(c)
	if !present {
		return apperrors.NewUnauthorized("missing authorization header")
	}
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}

	claims, err := m.sessions.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid session")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated admin-surface caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
