package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  Users
	logger *slog.Logger
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	u, err := h.users.RegisterUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	token, err := h.users.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.users.LogoutUser(auth.TokenFromRequest(c.Request)); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, _ := auth.UserID(c)
	u, err := h.users.Me(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
}
