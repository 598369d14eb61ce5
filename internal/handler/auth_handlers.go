package handler

import (
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucasnhandang/TheMillionaireGame/internal/auth"
	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/monitoring"
)

func (rt *Router) handleLogin(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.Username == "" || req.Password == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing username or password")
	}

	user, err := rt.store.Users.FindByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Error(protocol.CodeWrongCredentials, "Invalid username or password")
	}
	if err != nil {
		return internalError(rt.log, "login", err)
	}

	if user.Banned {
		msg := "Account is banned"
		if user.BanReason != "" {
			msg = "Account is banned: " + user.BanReason
		}
		return protocol.Error(protocol.CodeForbidden, msg)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return protocol.Error(protocol.CodeWrongCredentials, "Invalid username or password")
	}

	// Re-login on the same connection replaces the previous identity.
	if s.Authenticated {
		rt.gate.UnregisterToken(s.AuthToken, s.Username)
		rt.registry.UnbindUser(s.Username, s.ConnID)
	}

	token := rt.gate.GenerateToken()
	rt.gate.RegisterToken(token, s.ConnID, user.Username)

	s.Authenticated = true
	s.AuthToken = token
	s.Username = user.Username
	s.Role = user.Role
	rt.registry.BindUser(s.ConnID, user.Username)

	if err := rt.store.Users.UpdateLastLogin(user.Username); err != nil {
		rt.log.Warn("last-login update failed", zap.String("username", user.Username), zap.Error(err))
	}

	saved, err := rt.store.Games.Active(user.Username)
	if err != nil {
		rt.log.Warn("saved-game lookup failed", zap.String("username", user.Username), zap.Error(err))
	}

	rt.log.Info("user logged in",
		zap.String("username", user.Username), zap.Uint64("connId", s.ConnID))

	return protocol.OK(map[string]interface{}{
		"authToken":    token,
		"username":     user.Username,
		"role":         string(user.Role),
		"hasSavedGame": saved != nil,
	})
}

func (rt *Router) handleRegister(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.Username == "" || req.Password == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing username or password")
	}
	if !validUsername(req.Username) {
		return protocol.Error(protocol.CodeValidation,
			"Username must be 3-50 characters: letters, digits and underscores only")
	}
	if !auth.ValidatePasswordStrength(req.Password) {
		return protocol.Error(protocol.CodeWeakPassword,
			"Password must be at least 8 characters with upper, lower and digit")
	}

	exists, err := rt.store.Users.Exists(req.Username)
	if err != nil {
		return internalError(rt.log, "register", err)
	}
	if exists {
		return protocol.Error(protocol.CodeConflict, "Username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(rt.log, "register", err)
	}

	if err := rt.store.Users.Create(&model.User{
		Username: req.Username,
		Password: string(hashed),
		Role:     model.RoleUser,
	}); err != nil {
		return internalError(rt.log, "register", err)
	}

	rt.log.Info("user registered", zap.String("username", req.Username))

	return protocol.Created(map[string]interface{}{
		"username": req.Username,
		"message":  "Account created, you can log in now",
	})
}

func (rt *Router) handleLogout(req *protocol.Request, s *session.Session) *protocol.Response {
	if s.InGame {
		rt.engine.AutoSave(s)
		monitoring.ActiveGames.Dec()
	}

	rt.gate.UnregisterToken(s.AuthToken, s.Username)
	rt.registry.UnbindUser(s.Username, s.ConnID)

	rt.log.Info("user logged out", zap.String("username", s.Username))

	s.Authenticated = false
	s.AuthToken = ""
	s.Username = ""
	s.Role = ""

	return protocol.OK(map[string]string{"message": "Logged out"})
}

func (rt *Router) handleChangePass(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.OldPassword == "" || req.NewPassword == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing oldPassword or newPassword")
	}
	if !auth.ValidatePasswordStrength(req.NewPassword) {
		return protocol.Error(protocol.CodeWeakPassword,
			"Password must be at least 8 characters with upper, lower and digit")
	}

	user, err := rt.store.Users.FindByUsername(s.Username)
	if err != nil {
		return internalError(rt.log, "change_pass", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		return protocol.Error(protocol.CodeWrongCredentials, "Old password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return internalError(rt.log, "change_pass", err)
	}
	if err := rt.store.Users.UpdatePassword(s.Username, string(hashed)); err != nil {
		return internalError(rt.log, "change_pass", err)
	}

	rt.log.Info("password changed", zap.String("username", s.Username))
	return protocol.OK(map[string]string{"message": "Password changed"})
}

// validUsername: 3-50 chars, letters, digits and underscores.
func validUsername(name string) bool {
	if len(name) < 3 || len(name) > 50 {
		return false
	}
	for _, c := range name {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return false
		}
	}
	return !strings.HasPrefix(name, "_")
}
