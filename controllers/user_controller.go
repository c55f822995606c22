package controllers

import (
	"net/http"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/middleware"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	users services.UserService
}

func NewUserController(users services.UserService) *UserController {
	return &UserController{users: users}
}

// CreateCurrentUser registers the caller on first sign-in. An already known
// identity answers 200 with an empty body.
func (uc *UserController) CreateCurrentUser(c *gin.Context) {
	subject, err := middleware.GetAuth0ID(c)
	if err != nil {
		apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
		return
	}

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, created, err := uc.users.Create(c.Request.Context(), subject, req)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	if !created {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (uc *UserController) GetCurrentUser(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
		return
	}

	user, err := uc.users.Get(c.Request.Context(), userID)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateCurrentUser(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := uc.users.Update(c.Request.Context(), userID, req)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
