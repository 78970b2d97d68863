package services

import (
	"context"
	"fmt"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/notify"
)

// AuthService handles sign-in, registration and sign-out of one browser
type AuthService struct {
	Deps
}

// NewAuthService creates a new auth service
func NewAuthService(d Deps) *AuthService {
	return &AuthService{Deps: d}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and stores the session
func (s *AuthService) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, &Error{Message: validationMessage(err), Err: err}
	}

	var auth domain.AuthResult
	if _, err := s.API.Post(ctx, "/auth/login", in, &auth); err != nil {
		svcErr := normalize(err, "Login failed")
		s.Notify.Error(svcErr.Message)
		return nil, svcErr
	}

	if err := s.Session.SetAuth(auth.Username, auth.Email, auth.Token, auth.Role); err != nil {
		svcErr := normalize(err, "Login failed")
		s.Notify.Error(svcErr.Message)
		return nil, svcErr
	}

	s.Notify.Success(fmt.Sprintf("Welcome back, %s!", auth.Username))
	return &auth, nil
}

// Register starts a registration; the API mails an OTP
func (s *AuthService) Register(ctx context.Context, in domain.RegistrationInput) error {
	if err := in.Validate(); err != nil {
		return &Error{Message: validationMessage(err), Err: err}
	}

	body := registerRequest{Username: in.Username, Email: in.Email, Password: in.Password}
	if _, err := s.API.Post(ctx, "/auth/register/start", body, nil); err != nil {
		svcErr := normalize(err, "Registration failed")
		s.Notify.Error(svcErr.Message)
		return svcErr
	}

	s.Notify.Success("Registration started! Please check your email for OTP.")
	return nil
}

// VerifyOTP completes a registration and signs the new user in
func (s *AuthService) VerifyOTP(ctx context.Context, in domain.VerifyOTPInput) (*domain.AuthResult, error) {
	return mutate(s.Deps, in.Validate, "OTP verification failed",
		notify.PromiseMessages[*domain.AuthResult]{
			Loading: "Verifying OTP...",
			Success: func(auth *domain.AuthResult) string {
				return fmt.Sprintf("Welcome, %s!", auth.Username)
			},
		},
		func() (*domain.AuthResult, error) {
			var auth domain.AuthResult
			if _, err := s.API.Post(ctx, "/auth/register/verify", in, &auth); err != nil {
				return nil, err
			}

			email := auth.Email
			if email == "" {
				email = in.Email
			}
			if err := s.Session.SetAuth(auth.Username, email, auth.Token, auth.Role); err != nil {
				return nil, err
			}
			auth.Email = email
			return &auth, nil
		},
	)
}

// Logout clears the session and every cached read
func (s *AuthService) Logout() error {
	err := s.Session.Logout()
	s.Queries.Clear()
	s.Notify.Info("You have been logged out")
	return err
}
