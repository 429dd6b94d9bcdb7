package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/requestdata"
	"github.com/skillify/skillify-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_registration", err)
			return
		}
		h.log.Error("Register failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "register_failed", err)
		return
	}
	RespondCreated(c, gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
			return
		}
		h.log.Error("Login failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "login_failed", err)
		return
	}
	RespondOK(c, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	user, enrolledCourses, err := h.authService.GetProfile(c.Request.Context(), rd.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "user_not_found", err)
			return
		}
		h.log.Error("GetProfile failed", "error", err, "user_id", rd.UserID)
		RespondError(c, http.StatusInternalServerError, "load_profile_failed", err)
		return
	}
	RespondOK(c, gin.H{"user": user, "enrolled_courses": enrolledCourses})
}
