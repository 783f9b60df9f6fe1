package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Cristi-la/EOL-Net/internal/api/dto"
	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/service"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// EntitiesHandler serves one vendor-scoped resource (products or software). The
// request-level gate check has already run in middleware; the handler runs the
// object-level check once the target is loaded.
type EntitiesHandler struct {
	kind     domain.EntityKind
	catalog  *service.CatalogService
	gate     *auth.Gate
	recorder auth.DecisionRecorder
}

// NewEntitiesHandler constructs a handler for kind.
func NewEntitiesHandler(kind domain.EntityKind, catalog *service.CatalogService, gate *auth.Gate, recorder auth.DecisionRecorder) *EntitiesHandler {
	return &EntitiesHandler{kind: kind, catalog: catalog, gate: gate, recorder: recorder}
}

// List handles GET /api/{kind}.
func (h *EntitiesHandler) List(c *fiber.Ctx) error {
	entities, err := h.catalog.List(c.UserContext(), h.kind)
	if err != nil {
		return err
	}
	data := make([]dto.EntityResponse, 0, len(entities))
	for i := range entities {
		data = append(data, dto.NewEntityResponse(&entities[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get handles GET /api/{kind}/:id.
func (h *EntitiesHandler) Get(c *fiber.Ctx) error {
	entity, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEntityResponse(entity)})
}

// Create handles POST /api/{kind}.
func (h *EntitiesHandler) Create(c *fiber.Ctx) error {
	var req dto.EntityRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	entity, err := h.catalog.Create(c.UserContext(), tokenActor(c), h.kind, req.Input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEntityResponse(entity)})
}

// Replace handles PUT /api/{kind}/:id.
func (h *EntitiesHandler) Replace(c *fiber.Ctx) error {
	return h.update(c, true)
}

// Patch handles PATCH /api/{kind}/:id.
func (h *EntitiesHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, false)
}

func (h *EntitiesHandler) update(c *fiber.Ctx, replace bool) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}
	if err := auth.CheckObject(c, h.gate, h.recorder, &existing.VendorID); err != nil {
		return err
	}

	var req dto.EntityRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	input := req.Input()

	// Moving an object to another vendor needs the target vendor in scope as well.
	if input.VendorID != nil && *input.VendorID != existing.VendorID {
		if err := auth.CheckObject(c, h.gate, h.recorder, input.VendorID); err != nil {
			return err
		}
	}

	updated, err := h.catalog.Update(c.UserContext(), tokenActor(c), existing, input, replace)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEntityResponse(updated)})
}

// Delete handles DELETE /api/{kind}/:id.
func (h *EntitiesHandler) Delete(c *fiber.Ctx) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}
	if err := auth.CheckObject(c, h.gate, h.recorder, &existing.VendorID); err != nil {
		return err
	}
	if err := h.catalog.Delete(c.UserContext(), tokenActor(c), existing); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *EntitiesHandler) load(c *fiber.Ctx) (*domain.Entity, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.catalog.Get(c.UserContext(), h.kind, id)
}

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewNotFound("resource", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// decodeJSON decodes the body with the app decoder, which is also what the gate
// reads the target vendor with.
func decodeJSON(c *fiber.Ctx, out any) error {
	if err := c.App().Config().JSONDecoder(c.Body(), out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return nil
}

func tokenActor(c *fiber.Ctx) events.Actor {
	ac, ok := auth.AuthContextFromContext(c)
	if !ok {
		return events.Actor{Kind: events.ActorAPIToken}
	}
	return events.Actor{Kind: events.ActorAPIToken, ID: ac.Token.ID}
}
