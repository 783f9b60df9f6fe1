package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Cristi-la/EOL-Net/internal/api/dto"
	"github.com/Cristi-la/EOL-Net/internal/service"
)

// VendorsHandler serves the read-only vendor list.
type VendorsHandler struct {
	catalog *service.CatalogService
}

// NewVendorsHandler constructs handler.
func NewVendorsHandler(catalog *service.CatalogService) *VendorsHandler {
	return &VendorsHandler{catalog: catalog}
}

// List handles GET /api/vendors.
func (h *VendorsHandler) List(c *fiber.Ctx) error {
	vendors, err := h.catalog.ListVendors(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]dto.VendorResponse, 0, len(vendors))
	for _, vendor := range vendors {
		data = append(data, dto.VendorResponse{ID: vendor.ID, Name: vendor.Name})
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get handles GET /api/vendors/:id.
func (h *VendorsHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	vendor, err := h.catalog.GetVendor(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VendorResponse{ID: vendor.ID, Name: vendor.Name}})
}
