package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/storage"
	"github.com/tajious/rollcall/internal/validation"
)

type RoleHandler struct {
	storage storage.Storage
	log     zerolog.Logger
}

func NewRoleHandler(storage storage.Storage, log zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		storage: storage,
		log:     log,
	}
}

func (h *RoleHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

func (h *RoleHandler) ListDeleted(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *RoleHandler) list(c *fiber.Ctx, deleted bool) error {
	roles, err := h.storage.ListRoles(c.Context(), deleted)
	if err != nil {
		h.log.Error().Err(err).Bool("deleted", deleted).Msg("list roles")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch roles")
	}
	return c.JSON(roles)
}

func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var p models.RolePayload
	if err := h.parse(c, &p); err != nil {
		return err
	}

	role := &models.Role{
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
	}
	if err := h.storage.CreateRole(c.Context(), role); err != nil {
		return h.failed(c, err, "Failed to create role")
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *RoleHandler) Update(c *fiber.Ctx) error {
	var p models.RolePayload
	if err := h.parse(c, &p); err != nil {
		return err
	}

	id := c.Params("id")
	if err := h.storage.UpdateRole(c.Context(), id, p); err != nil {
		return h.failed(c, err, "Failed to update role")
	}

	role, err := h.storage.GetRole(c.Context(), id)
	if err != nil {
		return h.failed(c, err, "Failed to update role")
	}
	return c.JSON(role)
}

func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	if err := h.storage.SoftDeleteRole(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to delete role")
	}
	return c.JSON(models.MessageResponse{Message: "Role deleted successfully"})
}

func (h *RoleHandler) Restore(c *fiber.Ctx) error {
	if err := h.storage.RestoreRole(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to restore role")
	}
	return c.JSON(models.MessageResponse{Message: "Role restored successfully"})
}

func (h *RoleHandler) ForceDelete(c *fiber.Ctx) error {
	if err := h.storage.ForceDeleteRole(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to delete role")
	}
	return c.JSON(models.MessageResponse{Message: "Role permanently deleted"})
}

func (h *RoleHandler) parse(c *fiber.Ctx, p *models.RolePayload) error {
	if err := c.BodyParser(p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := validation.Check(*p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *RoleHandler) failed(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, storage.ErrRoleNotFound) {
		return fail(c, fiber.StatusNotFound, "Role not found")
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return fail(c, fiber.StatusInternalServerError, fallback)
}
