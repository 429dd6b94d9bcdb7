package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/services"
)

type LectureHandler struct {
	log            *logger.Logger
	lectureService services.LectureService
}

func NewLectureHandler(log *logger.Logger, lectureService services.LectureService) *LectureHandler {
	return &LectureHandler{
		log:            log.With("handler", "LectureHandler"),
		lectureService: lectureService,
	}
}

func (h *LectureHandler) CreateLecture(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	lecture, err := h.lectureService.CreateLecture(c.Request.Context(), courseID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "invalid_lecture", err)
		case errors.Is(err, errs.ErrNotFound):
			RespondError(c, http.StatusNotFound, "course_not_found", err)
		default:
			h.log.Error("CreateLecture failed", "error", err, "course_id", courseID)
			RespondError(c, http.StatusInternalServerError, "create_lecture_failed", err)
		}
		return
	}
	RespondCreated(c, gin.H{"lecture": lecture})
}

func (h *LectureHandler) EditLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	var req struct {
		Title         *string `json:"title"`
		VideoURL      *string `json:"video_url"`
		IsPreviewFree *bool   `json:"is_preview_free"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	lecture, err := h.lectureService.EditLecture(c.Request.Context(), lectureID, services.LectureUpdate{
		Title:         req.Title,
		VideoURL:      req.VideoURL,
		IsPreviewFree: req.IsPreviewFree,
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "lecture_not_found", err)
			return
		}
		h.log.Error("EditLecture failed", "error", err, "lecture_id", lectureID)
		RespondError(c, http.StatusInternalServerError, "edit_lecture_failed", err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture})
}

func (h *LectureHandler) GetLectureByID(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	lecture, err := h.lectureService.GetLectureByID(c.Request.Context(), lectureID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "lecture_not_found", err)
			return
		}
		h.log.Error("GetLectureByID failed", "error", err, "lecture_id", lectureID)
		RespondError(c, http.StatusInternalServerError, "load_lecture_failed", err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture})
}

func (h *LectureHandler) GetCourseLectures(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	lectures, err := h.lectureService.GetCourseLectures(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		h.log.Error("GetCourseLectures failed", "error", err, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "load_lectures_failed", err)
		return
	}
	RespondOK(c, gin.H{"lectures": lectures})
}

func (h *LectureHandler) RemoveLecture(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	if err := h.lectureService.RemoveLecture(c.Request.Context(), lectureID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "lecture_not_found", err)
			return
		}
		h.log.Error("RemoveLecture failed", "error", err, "lecture_id", lectureID)
		RespondError(c, http.StatusInternalServerError, "remove_lecture_failed", err)
		return
	}
	RespondOK(c, gin.H{"removed": true})
}
