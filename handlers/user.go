package handlers

import (
	"net/http"

	"easypro/middleware"
	"easypro/models"
	"easypro/services/user"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes registration, authentication and account management.
type UserHandler struct {
	Svc user.UserService
}

func NewUserHandler(svc user.UserService) *UserHandler {
	return &UserHandler{Svc: svc}
}

// RegisterHandler creates an account and returns it with a session token.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	created, token, err := h.Svc.Register(c.Request.Context(), &u)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": created, "token": token})
}

// LoginHandler exchanges credentials for a session token.
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	u, token, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

// LogoutHandler revokes the caller's current token.
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.ContextToken)); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GetProfileHandler returns the caller's account.
func (h *UserHandler) GetProfileHandler(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfileHandler edits the caller's account.
func (h *UserHandler) UpdateProfileHandler(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	u.ID = c.GetString(middleware.ContextUserID)

	updated, err := h.Svc.Update(c.Request.Context(), &u)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProfileHandler removes the caller's account.
func (h *UserHandler) DeleteProfileHandler(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString(middleware.ContextUserID)); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
