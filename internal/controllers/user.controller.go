package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthtrends/internal/repository"
)

type UserController struct {
	repo repository.UserRepository
}

func NewUserController(repo repository.UserRepository) *UserController {
	return &UserController{repo: repo}
}

type lookupRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// GetCurrentUser godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{} "User retrieved successfully"
// @Router /users/me [get]
func (uc *UserController) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := uc.repo.GetUserByID(userID)
	if err != nil {
		uc.notFoundOrError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User retrieved successfully",
		"data": gin.H{
			"user_id":  user.ID,
			"username": user.Name,
			"email":    user.Email,
		},
	})
}

// LookupUser godoc
// @Summary Resolve a user by email
// @Tags users
// @Accept json
// @Produce json
// @Param body body lookupRequest true "email"
// @Success 200 {object} map[string]interface{} "User retrieved successfully"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/lookup [post]
func (uc *UserController) LookupUser(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request data",
			"error":   err.Error(),
		})
		return
	}

	user, err := uc.repo.GetUserByEmail(req.Email)
	if err != nil {
		uc.notFoundOrError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User retrieved successfully",
		"data": gin.H{
			"user_id":  user.ID,
			"username": user.Name,
		},
	})
}

func (uc *UserController) notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "User not found",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Failed to retrieve user",
		"error":   err.Error(),
	})
}
