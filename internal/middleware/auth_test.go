package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const testSecret = "test-secret"

type stubProfileReader struct {
	profile *models.Profile
	err     error
}

func (s *stubProfileReader) GetByUserID(_ context.Context, _ int64) (*models.Profile, error) {
	return s.profile, s.err
}

func protectedApp(profiles profileReader) *fiber.App {
	app := fiber.New()
	app.Use(AuthRequired(testSecret))
	app.Use(LoadIdentity(profiles))
	app.Get("/me", func(c *fiber.Ctx) error {
		identity, _ := IdentityFrom(c)
		return c.JSON(fiber.Map{"user_id": identity.UserID, "is_admin": identity.IsAdmin})
	})
	app.Get("/admin", AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	app := protectedApp(&stubProfileReader{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	app := protectedApp(&stubProfileReader{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLoadIdentityResolvesProfile(t *testing.T) {
	app := protectedApp(&stubProfileReader{profile: &models.Profile{UserID: 42, IsAdmin: false}})

	token, err := utils.GenerateToken("42", "client", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLoadIdentityRejectsBlockedAccount(t *testing.T) {
	app := protectedApp(&stubProfileReader{profile: &models.Profile{UserID: 42, IsBlocked: true}})

	token, err := utils.GenerateToken("42", "client", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestLoadIdentityRejectsUnknownAccount(t *testing.T) {
	app := protectedApp(&stubProfileReader{err: pgx.ErrNoRows})

	token, err := utils.GenerateToken("42", "client", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminRequiredForbidsClients(t *testing.T) {
	app := protectedApp(&stubProfileReader{profile: &models.Profile{UserID: 42, IsAdmin: false}})

	token, err := utils.GenerateToken("42", "client", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminRequiredAllowsAdmins(t *testing.T) {
	app := protectedApp(&stubProfileReader{profile: &models.Profile{UserID: 1, IsAdmin: true}})

	token, err := utils.GenerateToken("1", "admin", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
