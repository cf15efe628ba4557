package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/auth"
	"github.com/gartstein/roimodeling/internal/roimodel/controller"
	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/lookup"
)

// Handler exposes the session service of the authenticated owner.
type Handler struct {
	sessions *controller.Sessions
	lookup   lookup.Service
	logger   *zap.Logger
}

func NewHandler(sessions *controller.Sessions, lk lookup.Service, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		lookup:   lk,
		logger:   logger.Named("http_handler"),
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Op      string `json:"op,omitempty"`
	Details string `json:"details,omitempty"`
}

// Register mounts the routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/session", h.OpenSession)
	rg.DELETE("/session", h.CloseSession)

	rg.POST("/aggregate", h.CreateAggregate)
	rg.POST("/aggregate/clear", h.Clear)
	rg.GET("/aggregate/summary", h.Summary)
	rg.GET("/aggregate/export", h.Export)
	rg.GET("/errors/last", h.LastError)

	rg.GET("/roi-models", h.ListRoiModels)
	rg.POST("/roi-models", h.CreateRoiModel)
	rg.GET("/roi-models/active", h.GetActive)
	rg.PUT("/roi-models/active/name", h.RenameActive)
	rg.POST("/roi-models/active/duplicate", h.Duplicate)
	rg.POST("/roi-models/:id/activate", h.MakeActive)
	rg.DELETE("/roi-models/:id", h.DeleteRoiModel)

	rg.PUT("/current-information", h.UpdateCurrentInformation)
	rg.PUT("/career-goal", h.UpdateCareerGoal)
	rg.PUT("/education-cost", h.UpdateEducationCost)
	rg.PUT("/education-financing", h.UpdateEducationFinancing)

	rg.POST("/forms/current-information", h.SubmitCurrentInformationForm)
	rg.POST("/forms/career-goal", h.SubmitCareerGoalForm)
	rg.POST("/forms/education-cost", h.SubmitEducationCostForm)

	rg.GET("/compare", h.Compare)

	rg.GET("/saved", h.ListSaved)
	rg.POST("/saved", h.Save)
	rg.POST("/saved/:id/load", h.Load)
	rg.DELETE("/saved/:id", h.DeleteSaved)
}

// OpenSession handles POST /api/v1/session
func (h *Handler) OpenSession(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": svc.SessionID(),
		"snapshot":  svc.Snapshot(),
	})
}

// CloseSession handles DELETE /api/v1/session
func (h *Handler) CloseSession(c *gin.Context) {
	owner, ok := auth.Owner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		return
	}
	h.sessions.Close(owner)
	c.Status(http.StatusNoContent)
}

// CreateAggregate handles POST /api/v1/aggregate. An empty body starts from
// the default aggregate.
func (h *Handler) CreateAggregate(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}

	body := &dto.RoiModelDto{}
	present, ok := h.bindOptional(c, body)
	if !ok {
		return
	}
	if !present {
		body = nil
	}
	snap, err := svc.CreateEmptyRoiAggregate(body)
	h.respond(c, http.StatusCreated, snap, err)
}

// Clear handles POST /api/v1/aggregate/clear
func (h *Handler) Clear(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := svc.Clear()
	h.respond(c, http.StatusOK, snap, err)
}

// Summary handles GET /api/v1/aggregate/summary
func (h *Handler) Summary(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	summary, err := svc.Summary()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(summary))
}

// Export handles GET /api/v1/aggregate/export
func (h *Handler) Export(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	export, err := svc.Export()
	h.respond(c, http.StatusOK, export, err)
}

// LastError handles GET /api/v1/errors/last
func (h *Handler) LastError(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	lastErr := svc.LastError()
	if lastErr == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, lastErr)
}

// ListRoiModels handles GET /api/v1/roi-models
func (h *Handler) ListRoiModels(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	list, err := svc.GetRoiList()
	h.respond(c, http.StatusOK, list, err)
}

// CreateRoiModel handles POST /api/v1/roi-models
func (h *Handler) CreateRoiModel(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req nameRequest
	if _, ok := h.bindOptional(c, &req); !ok {
		return
	}
	snap, err := svc.CreateEmptyRoiModel(req.Name)
	h.respond(c, http.StatusCreated, snap, err)
}

// GetActive handles GET /api/v1/roi-models/active
func (h *Handler) GetActive(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, svc.Snapshot())
}

// RenameActive handles PUT /api/v1/roi-models/active/name
func (h *Handler) RenameActive(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req nameRequest
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.UpdateRoiModelName(req.Name)
	h.respond(c, http.StatusOK, snap, err)
}

// Duplicate handles POST /api/v1/roi-models/active/duplicate
func (h *Handler) Duplicate(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.DialogDataToKeepModel
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.DuplicateRoiModel(req)
	h.respond(c, http.StatusCreated, snap, err)
}

// MakeActive handles POST /api/v1/roi-models/:id/activate
func (h *Handler) MakeActive(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := svc.MakeActive(c.Param("id"))
	h.respond(c, http.StatusOK, snap, err)
}

// DeleteRoiModel handles DELETE /api/v1/roi-models/:id
func (h *Handler) DeleteRoiModel(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := svc.DeleteRoiModel(c.Param("id"))
	h.respond(c, http.StatusOK, snap, err)
}

// UpdateCurrentInformation handles PUT /api/v1/current-information
func (h *Handler) UpdateCurrentInformation(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.CurrentInformationDto
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.UpdateCurrentInformation(req)
	h.respond(c, http.StatusOK, snap, err)
}

// UpdateCareerGoal handles PUT /api/v1/career-goal
func (h *Handler) UpdateCareerGoal(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.CareerGoalDto
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.UpdateCareerGoal(req)
	h.respond(c, http.StatusOK, snap, err)
}

// UpdateEducationCost handles PUT /api/v1/education-cost
func (h *Handler) UpdateEducationCost(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.EducationCostDto
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.UpdateEducationCost(req)
	h.respond(c, http.StatusOK, snap, err)
}

// UpdateEducationFinancing handles PUT /api/v1/education-financing
func (h *Handler) UpdateEducationFinancing(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.EducationFinancingDto
	if !h.bind(c, &req) {
		return
	}
	snap, err := svc.UpdateEducationFinancing(req)
	h.respond(c, http.StatusOK, snap, err)
}

// SubmitCurrentInformationForm handles POST /api/v1/forms/current-information
func (h *Handler) SubmitCurrentInformationForm(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var form dto.CurrentInformationForm
	if !h.bind(c, &form) {
		return
	}
	snap, err := h.forms(svc).ProcessCurrentInformation(c.Request.Context(), form)
	h.respond(c, http.StatusOK, snap, err)
}

// SubmitCareerGoalForm handles POST /api/v1/forms/career-goal
func (h *Handler) SubmitCareerGoalForm(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var form dto.CareerGoalForm
	if !h.bind(c, &form) {
		return
	}
	snap, err := h.forms(svc).ProcessCareerGoal(c.Request.Context(), form)
	h.respond(c, http.StatusOK, snap, err)
}

// SubmitEducationCostForm handles POST /api/v1/forms/education-cost
func (h *Handler) SubmitEducationCostForm(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	var form dto.EducationCostForm
	if !h.bind(c, &form) {
		return
	}
	snap, err := h.forms(svc).ProcessEducationCost(c.Request.Context(), form)
	h.respond(c, http.StatusOK, snap, err)
}

// Compare handles GET /api/v1/compare
func (h *Handler) Compare(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	rows, err := svc.Compare()
	h.respond(c, http.StatusOK, rows, err)
}

// ListSaved handles GET /api/v1/saved
func (h *Handler) ListSaved(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	list, err := svc.ListSaved(c.Request.Context())
	h.respond(c, http.StatusOK, list, err)
}

// Save handles POST /api/v1/saved
func (h *Handler) Save(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	id, err := svc.Save(c.Request.Context())
	h.respond(c, http.StatusCreated, gin.H{"id": id}, err)
}

// Load handles POST /api/v1/saved/:id/load
func (h *Handler) Load(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := svc.Load(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, snap, err)
}

// DeleteSaved handles DELETE /api/v1/saved/:id
func (h *Handler) DeleteSaved(c *gin.Context) {
	svc, ok := h.session(c)
	if !ok {
		return
	}
	if err := svc.DeleteSaved(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// session resolves the owner's live session, opening one when needed.
func (h *Handler) session(c *gin.Context) (*controller.RoiModelService, bool) {
	owner, ok := auth.Owner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		return nil, false
	}
	svc, err := h.sessions.Open(owner)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return svc, true
}

func (h *Handler) forms(svc *controller.RoiModelService) *controller.FormProcessor {
	return controller.NewFormProcessor(svc, h.lookup, h.logger)
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// bindOptional binds a JSON body that may be absent. present is false for an
// empty body whatever its transfer encoding.
func (h *Handler) bindOptional(c *gin.Context, dst interface{}) (present, ok bool) {
	if c.Request.Body == nil {
		return false, true
	}
	err := c.ShouldBindJSON(dst)
	switch {
	case errors.Is(err, io.EOF):
		return false, true
	case err != nil:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false, false
	}
	return true, true
}

func (h *Handler) respond(c *gin.Context, status int, body interface{}, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, body)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := h.mapServiceError(err)
	resp := errorResponse{Error: err.Error()}

	var opErr *e.OperationError
	if errors.As(err, &opErr) {
		resp.Op = opErr.Op
		resp.Details = opErr.Details
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Internal server error",
			zap.Error(err),
			zap.String("request_id", GetRequestID(c)),
		)
		resp.Error = "internal server error"
		resp.Details = ""
	}
	c.JSON(status, resp)
}

// mapServiceError maps domain or repository errors to HTTP status codes.
func (h *Handler) mapServiceError(err error) int {
	switch {
	case errors.Is(err, e.ErrRoiModelMissing), errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrConversion):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
