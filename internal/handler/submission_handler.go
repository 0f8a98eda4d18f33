package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-console-api/internal/export"
	"github.com/noah-isme/exam-console-api/internal/service"
	"github.com/noah-isme/exam-console-api/internal/utils"
)

// SubmissionHandler exposes submission review, statistics and CSV downloads.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/stats", h.stats)
	router.Get("/export", h.exportBatch)
	router.Get("/:id", h.detail)
	router.Get("/:id/export", h.exportDetail)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	examID, err := parseOptionalUintQuery(c, "exam_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.List(c.UserContext(), teacherIDFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) stats(c *fiber.Ctx) error {
	examID, err := parseOptionalUintQuery(c, "exam_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.service.Stats(c.UserContext(), teacherIDFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission statistics", stats)
}

func (h *SubmissionHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Detail(c.UserContext(), teacherIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", detail)
}

func (h *SubmissionHandler) exportBatch(c *fiber.Ctx) error {
	examID, err := parseOptionalUintQuery(c, "exam_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	artifact, err := h.service.ExportBatch(c.UserContext(), teacherIDFromContext(c), examID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return sendArtifact(c, artifact)
}

func (h *SubmissionHandler) exportDetail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	artifact, err := h.service.ExportDetail(c.UserContext(), teacherIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return sendArtifact(c, artifact)
}

func sendArtifact(c *fiber.Ctx, artifact export.Artifact) error {
	return utils.Attachment(c, artifact.Filename, artifact.ContentType, artifact.Body)
}
