package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/requestdata"
	"github.com/skillify/skillify-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), rd.UserID, req.Title, req.Category)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_course", err)
			return
		}
		h.log.Error("CreateCourse failed", "error", err, "user_id", rd.UserID)
		RespondError(c, http.StatusInternalServerError, "create_course_failed", err)
		return
	}
	RespondCreated(c, gin.H{"course": course})
}

func (h *CourseHandler) EditCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	var req struct {
		Title        *string  `json:"title"`
		Subtitle     *string  `json:"subtitle"`
		Description  *string  `json:"description"`
		Category     *string  `json:"category"`
		Level        *string  `json:"level"`
		Price        *float64 `json:"price"`
		ThumbnailURL *string  `json:"thumbnail_url"`
		IsPublished  *bool    `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	course, err := h.courseService.EditCourse(c.Request.Context(), rd.UserID, courseID, services.CourseUpdate{
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		Price:        req.Price,
		ThumbnailURL: req.ThumbnailURL,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			RespondError(c, http.StatusNotFound, "course_not_found", err)
		case errors.Is(err, errs.ErrUnauthorized):
			RespondError(c, http.StatusForbidden, "not_course_owner", err)
		default:
			h.log.Error("EditCourse failed", "error", err, "course_id", courseID)
			RespondError(c, http.StatusInternalServerError, "edit_course_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"course": course})
}

func (h *CourseHandler) GetCourseByID(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	course, err := h.courseService.GetCourseByID(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		h.log.Error("GetCourseByID failed", "error", err, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	RespondOK(c, gin.H{"course": course})
}

func (h *CourseHandler) GetCreatorCourses(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	courses, err := h.courseService.GetCreatorCourses(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("GetCreatorCourses failed", "error", err, "user_id", rd.UserID)
		RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (h *CourseHandler) GetCourseEnrollments(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	enrollments, err := h.courseService.GetCourseEnrollments(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		if errors.Is(err, errs.ErrUnauthorized) {
			RespondError(c, http.StatusForbidden, "not_course_owner", err)
			return
		}
		h.log.Error("GetCourseEnrollments failed", "error", err, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "load_enrollments_failed", err)
		return
	}
	RespondOK(c, gin.H{"enrollments": enrollments})
}

func (h *CourseHandler) SearchPublished(c *gin.Context) {
	query := c.Query("query")
	var categories []string
	if raw := c.Query("categories"); raw != "" {
		for _, category := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(category); trimmed != "" {
				categories = append(categories, trimmed)
			}
		}
	}

	courses, err := h.courseService.SearchPublished(c.Request.Context(), query, categories)
	if err != nil {
		h.log.Error("SearchPublished failed", "error", err, "query", query)
		RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}
