package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/storage"
	"github.com/tajious/rollcall/internal/validation"
)

type UserHandler struct {
	storage storage.Storage
	log     zerolog.Logger
}

func NewUserHandler(storage storage.Storage, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		storage: storage,
		log:     log,
	}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

func (h *UserHandler) ListDeleted(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *UserHandler) list(c *fiber.Ctx, deleted bool) error {
	users, err := h.storage.ListUsers(c.Context(), deleted)
	if err != nil {
		h.log.Error().Err(err).Bool("deleted", deleted).Msg("list users")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(users)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	payload, err := h.payload(c)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:   payload.Name,
		Mobile: payload.Mobile,
		Status: payload.Status,
		RoleID: payload.RoleID,
	}
	if err := h.storage.CreateUser(c.Context(), user); err != nil {
		return h.failed(c, err, "Failed to create user")
	}

	created, err := h.storage.GetUser(c.Context(), user.ID)
	if err != nil {
		return h.failed(c, err, "Failed to create user")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	payload, err := h.payload(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if err := h.storage.UpdateUser(c.Context(), id, *payload); err != nil {
		return h.failed(c, err, "Failed to update user")
	}

	user, err := h.storage.GetUser(c.Context(), id)
	if err != nil {
		return h.failed(c, err, "Failed to update user")
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.storage.SoftDeleteUser(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to delete user")
	}
	return c.JSON(models.MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) Restore(c *fiber.Ctx) error {
	if err := h.storage.RestoreUser(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to restore user")
	}
	return c.JSON(models.MessageResponse{Message: "User restored successfully"})
}

func (h *UserHandler) ForceDelete(c *fiber.Ctx) error {
	if err := h.storage.ForceDeleteUser(c.Context(), c.Params("id")); err != nil {
		return h.failed(c, err, "Failed to delete user")
	}
	return c.JSON(models.MessageResponse{Message: "User permanently deleted"})
}

func (h *UserHandler) payload(c *fiber.Ctx) (*models.UserPayload, error) {
	var p models.UserPayload
	if err := c.BodyParser(&p); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := validation.Check(p); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if p.RoleID != "" {
		if _, err := h.storage.GetRole(c.Context(), p.RoleID); err != nil {
			if errors.Is(err, storage.ErrRoleNotFound) {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Role not found")
			}
			h.log.Error().Err(err).Str("role_id", p.RoleID).Msg("load role")
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load role")
		}
	}
	return &p, nil
}

func (h *UserHandler) failed(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, storage.ErrMobileTaken):
		return fail(c, fiber.StatusConflict, "Mobile number already registered")
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return fail(c, fiber.StatusInternalServerError, fallback)
}
