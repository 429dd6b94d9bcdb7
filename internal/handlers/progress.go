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

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
	}
}

func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
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

	view, err := h.progressService.GetCourseProgress(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		h.log.Error("GetCourseProgress failed", "error", err, "user_id", rd.UserID, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "load_progress_failed", err)
		return
	}
	RespondOK(c, gin.H{"data": view})
}

func (h *ProgressHandler) RecordLectureViewed(c *gin.Context) {
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
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	if err := h.progressService.RecordLectureViewed(c.Request.Context(), rd.UserID, courseID, lectureID); err != nil {
		h.log.Error("RecordLectureViewed failed", "error", err, "user_id", rd.UserID, "course_id", courseID, "lecture_id", lectureID)
		RespondError(c, http.StatusInternalServerError, "update_progress_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "lecture progress updated"})
}

func (h *ProgressHandler) MarkCourseCompleted(c *gin.Context) {
	h.setCompletion(c, true)
}

func (h *ProgressHandler) MarkCourseIncomplete(c *gin.Context) {
	h.setCompletion(c, false)
}

func (h *ProgressHandler) setCompletion(c *gin.Context, completed bool) {
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

	if completed {
		err = h.progressService.MarkCourseCompleted(c.Request.Context(), rd.UserID, courseID)
	} else {
		err = h.progressService.MarkCourseIncomplete(c.Request.Context(), rd.UserID, courseID)
	}
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_progress_not_found", err)
			return
		}
		h.log.Error("setCompletion failed", "error", err, "user_id", rd.UserID, "course_id", courseID, "completed", completed)
		RespondError(c, http.StatusInternalServerError, "update_progress_failed", err)
		return
	}

	if completed {
		RespondOK(c, gin.H{"message": "course marked as completed"})
		return
	}
	RespondOK(c, gin.H{"message": "course marked as incomplete"})
}
