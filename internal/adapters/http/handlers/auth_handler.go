package handlers

import (
	"net/url"
	"strings"

	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// AuthHandler serves the login, registration and OTP screens
type AuthHandler struct {
	*Base
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(base *Base) *AuthHandler {
	return &AuthHandler{Base: base}
}

var (
	loginPage    = page{Title: "Sign in"}
	registerPage = page{Title: "Register"}
	verifyPage   = page{Title: "Verify OTP"}
)

// LoginPage shows the login form
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.render(c, "auth/login", views.LayoutAuth, loginPage, fiber.Map{
		"Form": domain.LoginInput{},
	})
}

// Login signs the browser in
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	in := domain.LoginInput{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
	}

	svc := services.NewAuthService(h.deps(c))
	if _, err := svc.Login(requestContext(c), in); err != nil {
		return h.formError(c, "auth/login", views.LayoutAuth, loginPage, fiber.Map{
			"Form": domain.LoginInput{Username: in.Username},
		}, err)
	}
	return c.Redirect("/dashboard")
}

// RegisterPage shows the registration form
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.render(c, "auth/register", views.LayoutAuth, registerPage, fiber.Map{
		"Form": domain.RegistrationInput{},
	})
}

// Register starts a registration and moves on to OTP entry
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in := domain.RegistrationInput{
		Username: strings.TrimSpace(c.FormValue("username")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Confirm:  c.FormValue("confirm"),
	}

	svc := services.NewAuthService(h.deps(c))
	if err := svc.Register(requestContext(c), in); err != nil {
		return h.formError(c, "auth/register", views.LayoutAuth, registerPage, fiber.Map{
			"Form": domain.RegistrationInput{Username: in.Username, Email: in.Email},
		}, err)
	}
	return c.Redirect("/verify-otp?email=" + url.QueryEscape(in.Email))
}

// VerifyOTPPage shows the OTP form, with the email locked when it
// arrives from registration
func (h *AuthHandler) VerifyOTPPage(c *fiber.Ctx) error {
	email := c.Query("email")
	return h.render(c, "auth/verify_otp", views.LayoutAuth, verifyPage, fiber.Map{
		"Form":        domain.VerifyOTPInput{Email: email},
		"EmailLocked": email != "",
	})
}

// VerifyOTP completes registration and signs the browser in
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	// the email may be kept in the session when the API omits it
	in := domain.VerifyOTPInput{
		Email: utils.CopyString(strings.TrimSpace(c.FormValue("email"))),
		OTP:   strings.TrimSpace(c.FormValue("otp")),
	}

	svc := services.NewAuthService(h.deps(c))
	if _, err := svc.VerifyOTP(requestContext(c), in); err != nil {
		return h.formError(c, "auth/verify_otp", views.LayoutAuth, verifyPage, fiber.Map{
			"Form":        domain.VerifyOTPInput{Email: in.Email},
			"EmailLocked": c.FormValue("locked") != "",
		}, err)
	}
	return c.Redirect("/dashboard")
}

// Logout signs the browser out
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	svc := services.NewAuthService(h.deps(c))
	if err := svc.Logout(); err != nil {
		return err
	}
	return c.Redirect("/login")
}
