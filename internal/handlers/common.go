package handlers

import (
	"strconv"

	"github.com/damil-o/TrainerBizBack/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func identityFrom(c *fiber.Ctx) (middleware.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
