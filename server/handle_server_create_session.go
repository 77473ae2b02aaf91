package server

import (
	"errors"
	"time"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/models"
	"github.com/haileyok/seneca/signature"
	"github.com/labstack/echo/v4"
)

type Session struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (s *Server) createSession(d string) (*Session, error) {
	now := time.Now()
	exp := now.Add(s.config.SessionTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"scope": accessScope,
		"aud":   s.config.Did,
		"sub":   d,
		"iat":   now.UTC().Unix(),
		"exp":   exp.UTC().Unix(),
		"jti":   uuid.NewString(),
	})

	accessString, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(&models.Token{
		Token:     accessString,
		Did:       d,
		CreatedAt: now,
		ExpiresAt: exp,
	}).Error; err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: accessString,
		ExpiresAt:   exp,
	}, nil
}

func (s *Server) handleCreateSession(e echo.Context) error {
	var req api.CreateSessionRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error receiving request", "endpoint", "registry.createSession", "error", err)
		return helpers.InputError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			switch verr.Field {
			case "Did":
				return helpers.InputError(e, to.StringPtr("InvalidDID"))
			case "Signature":
				return helpers.InputError(e, to.StringPtr("InvalidSignature"))
			}
		}

		return helpers.InputError(e, nil)
	}

	acct, err := s.passport.ResolveAccount(e.Request().Context(), req.Did)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidDID"))
	}

	issued := time.UnixMilli(int64(req.IssuedAt))
	if skew := time.Since(issued); skew > challengeWindow || skew < -challengeWindow {
		return helpers.InputError(e, to.StringPtr("ExpiredChallenge"))
	}

	sig, err := signature.ParseHex(req.Signature)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidSignature"))
	}

	challenge := api.SessionChallenge{
		Did:      []byte(req.Did),
		Audience: []byte(s.config.Did),
		IssuedAt: req.IssuedAt,
	}

	msg, err := challenge.Bytes()
	if err != nil {
		s.logger.Error("error encoding challenge", "error", err)
		return helpers.ServerError(e, nil)
	}

	if !s.verifier.Verify(msg, sig, acct) {
		return helpers.Unauthorized(e, to.StringPtr("SignatureVerifyError"))
	}

	sess, err := s.createSession(req.Did)
	if err != nil {
		s.logger.Error("error creating session", "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, api.CreateSessionResponse{
		AccessJwt: sess.AccessToken,
		Did:       req.Did,
	})
}
