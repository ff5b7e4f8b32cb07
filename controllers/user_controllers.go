package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/utils"
)

// UserController melayani login staff. Autentikasi penuh adalah collaborator
// eksternal; endpoint ini hanya seam untuk mendapatkan token staff.
type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

func (uc *UserController) Register(c *gin.Context) {
	var body struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		Name         string `json:"name" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=8"`
		Role         string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	role := body.Role
	if role == "" {
		role = "staff"
	}
	user := models.User{
		RestaurantID: body.RestaurantID,
		Name:         body.Name,
		Email:        body.Email,
		Password:     string(hashed),
		Role:         role,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, utils.NewConflictError("email already registered", nil))
			return
		}
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{"id": user.ID})
}

func (uc *UserController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		utils.RespondError(c, utils.NewUnauthorizedError("invalid email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		utils.RespondError(c, utils.NewUnauthorizedError("invalid email or password"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login success", gin.H{
		"token": token,
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"role":          user.Role,
			"restaurant_id": user.RestaurantID,
		},
	})
}
