package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetbook/internal/identity"
	"budgetbook/internal/log"
	"budgetbook/internal/users"
)

const userIDKey = "user_id"

// requireUser resolves the Authorization header to a user id.
func (s *Server) requireUser(c *gin.Context) {
	userID, err := identity.FromAuthorizationHeader(s.codec, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(userIDKey, userID)
	ctx := c.Request.Context()
	c.Request = c.Request.WithContext(log.WithContext(ctx, log.FromContext(ctx).With(log.FieldUserID, userID)))
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

type registerRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type userView struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	err := s.accounts.Register(c.Request.Context(), users.Registration{
		ID:       req.ID,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Nickname: req.Nickname,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageBody("Registration complete."))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := s.accounts.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful.",
		"token":   session.Token,
		"user":    userView{Name: session.Name, Nickname: session.Nickname},
	})
}
