package fakeapi

import (
	"strings"
	"time"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/jwt"
	"finspark-backoffice/internal/pkg/password"
	"finspark-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const tokenTTL = time.Hour

// hashCost keeps bcrypt fast in tests
const hashCost = 4

// SeedUser creates a verified user
func (s *Server) SeedUser(username, email, plain, role string) {
	hash, err := password.HashWithCost(plain, hashCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.users[username] = user{username: username, email: email, hash: hash, role: role}
	s.mu.Unlock()
}

// Token issues a valid token for a seeded user
func (s *Server) Token(username string) string {
	s.mu.Lock()
	u, secret := s.users[username], s.secret
	s.mu.Unlock()

	token, err := jwt.GenerateAccessToken(u.username, u.email, u.role, secret, tokenTTL)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) login(c *fiber.Ctx) error {
	var in domain.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	s.mu.Lock()
	u, ok := s.users[in.Username]
	secret := s.secret
	s.mu.Unlock()

	if !ok || !password.Verify(in.Password, u.hash) {
		return response.Unauthorized(c, "Invalid username or password")
	}

	token, err := jwt.GenerateAccessToken(u.username, u.email, u.role, secret, tokenTTL)
	if err != nil {
		return response.InternalServerError(c, "Failed to issue token")
	}

	return response.Success(c, "Login successful", domain.AuthResult{
		Token:    token,
		Type:     "Bearer",
		Username: u.username,
		Email:    u.email,
		Role:     u.role,
	})
}

func (s *Server) registerStart(c *fiber.Ctx) error {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return response.BadRequest(c, "Username, email and password are required")
	}

	hash, err := password.HashWithCost(in.Password, hashCost)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[in.Username]; exists {
		return response.Conflict(c, "Username already exists")
	}
	s.pending[strings.ToLower(in.Email)] = user{username: in.Username, email: in.Email, hash: hash, role: string(domain.RoleUser)}

	return response.Success(c, "OTP sent to "+in.Email, nil)
}

// registerVerify answers without the email so clients fall back to the submitted one
func (s *Server) registerVerify(c *fiber.Ctx) error {
	var in domain.VerifyOTPInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	s.mu.Lock()
	key := strings.ToLower(in.Email)
	u, ok := s.pending[key]
	if !ok || in.OTP != OTP {
		s.mu.Unlock()
		return response.BadRequest(c, "Invalid or expired OTP")
	}
	delete(s.pending, key)
	s.users[u.username] = u
	secret := s.secret
	s.mu.Unlock()

	token, err := jwt.GenerateAccessToken(u.username, u.email, u.role, secret, tokenTTL)
	if err != nil {
		return response.InternalServerError(c, "Failed to issue token")
	}

	return response.Success(c, "Registration complete", domain.AuthResult{
		Token:    token,
		Type:     "Bearer",
		Username: u.username,
		Role:     u.role,
	})
}

// bearer validates the access token like the real API
func (s *Server) bearer(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return response.Unauthorized(c, "Access token required")
	}

	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	claims, err := jwt.ValidateAccessToken(strings.TrimPrefix(header, "Bearer "), secret)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return response.Unauthorized(c, "Access token expired")
		}
		return response.Unauthorized(c, "Invalid access token")
	}

	c.Locals("username", claims.Username)
	return c.Next()
}
