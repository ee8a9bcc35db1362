package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/middlewares"
	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

type AuthController struct {
	Svc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{Svc: svc}
}

type LoginInput struct {
	// Username may also hold the e-mail address.
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup
func (h *AuthController) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	sess, err := h.Svc.Signup(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// POST /auth/login
func (h *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}
	identifier := input.Username
	if identifier == "" {
		identifier = input.Email
	}

	sess, err := h.Svc.Login(c.Request.Context(), identifier, input.Password)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// GET /auth/verify
func (h *AuthController) Verify(c *gin.Context) {
	token := middlewares.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}
	user, err := h.Svc.Verify(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PUT /auth/profile
func (h *AuthController) UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	user, err := h.Svc.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

// POST /auth/logout
func (h *AuthController) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middlewares.CtxToken)); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
