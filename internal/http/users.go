package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// UserManager manages staff accounts. *auth.Service implements it.
type UserManager interface {
	ListUsers() ([]entities.User, error)
	CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error)
	SetRole(userID uint, role entities.UserRole) error
	DeleteUser(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error
}

// UsersController handles staff account operations.
type UsersController struct {
	users UserManager
}

func NewUsersController(users UserManager) *UsersController {
	return &UsersController{users: users}
}

// RegisterRoutes mounts superuser-only account management.
func (uc *UsersController) RegisterRoutes(group gin.IRoutes) {
	group.GET("", uc.List)
	group.POST("", uc.Create)
	group.PUT("/:id/role", uc.SetRole)
	group.DELETE("/:id", uc.Delete)
}

type CreateUserRequest struct {
	Username string            `json:"username" binding:"required"`
	Email    string            `json:"email" binding:"required"`
	Password string            `json:"password" binding:"required"`
	Role     entities.UserRole `json:"role"`
}

type SetRoleRequest struct {
	Role entities.UserRole `json:"role" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// List handles GET /api/users
func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.users.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	if users == nil {
		users = []entities.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Create handles POST /api/users. Accounts default to the viewer role.
func (uc *UsersController) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = entities.UserRoleViewer
	}
	if !req.Role.Valid() {
		respondBadRequest(c, auth.ErrInvalidRole.Error())
		return
	}

	user, err := uc.users.CreateUser(req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		respondUserError(c, err)
		return
	}
	respondCreated(c, user)
}

// SetRole handles PUT /api/users/:id/role
func (uc *UsersController) SetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}
	if err := uc.users.SetRole(id, req.Role); err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "role": req.Role})
}

// Delete handles DELETE /api/users/:id. Removing yourself is refused.
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == auth.GetUserID(c) {
		respondBadRequest(c, "cannot delete your own account")
		return
	}
	if err := uc.users.DeleteUser(id); err != nil {
		respondUserError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePassword handles POST /api/auth/password for the current user.
func (uc *UsersController) ChangePassword(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated"})
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}
	if err := uc.users.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			respondBadRequest(c, "current password is incorrect")
			return
		}
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "password changed"})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, auth.ErrUserExists), errors.Is(err, auth.ErrLastSuperuser):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrUsernameInvalid),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrPasswordNumeric),
		errors.Is(err, auth.ErrPasswordCommon),
		errors.Is(err, auth.ErrPasswordSimilar):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, "user")
	}
}
