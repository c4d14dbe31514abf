package handler

import (
	"context"
	"net/http"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/policy"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/due", h.Due)
	rg.GET("/overdue", h.Overdue)
	rg.GET("/activity", h.QueryActivity)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/follow-up", h.ScheduleFollowUp)
	rg.PUT("/:id/follow-up", h.RescheduleFollowUp)
	rg.POST("/:id/revert", h.Revert)
	rg.POST("/:id/lost", h.MarkLost)
	rg.POST("/:id/stage", h.ChangeStage)
	rg.PUT("/:id/assign", h.Assign)
	rg.GET("/:id/activity", h.GetActivityLog)
	rg.GET("/:id/follow-up-history", h.GetFollowupHistory)
}

func actorFrom(c *gin.Context) (policy.Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return policy.Actor{}, false
	}
	return policy.Actor{
		EmployeeID:   id.EmployeeID(),
		RoleID:       id.RoleID(),
		DepartmentID: id.DepartmentID(),
	}, true
}

func leadIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	leads, err := h.svc.List(c.Request.Context(), actor, c.Query("stage"), c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, leads)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	h.applyFollowUp(c, h.svc.ScheduleFollowUp)
}

func (h *Handler) RescheduleFollowUp(c *gin.Context) {
	h.applyFollowUp(c, h.svc.RescheduleFollowUp)
}

func (h *Handler) applyFollowUp(c *gin.Context, apply func(context.Context, policy.Actor, uuid.UUID, transport.FollowUpRequest) (transport.LeadResponse, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := apply(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Revert(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.RevertToPrevious(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) MarkLost(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.svc.MarkLost(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ChangeStage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStage(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Assign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.AssignWithinStage(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Due(c *gin.Context) {
	h.workQueue(c, h.svc.DueOn)
}

func (h *Handler) Overdue(c *gin.Context) {
	h.workQueue(c, h.svc.OverdueOn)
}

func (h *Handler) workQueue(c *gin.Context, query func(context.Context, policy.Actor, time.Time) ([]transport.LeadResponse, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "date must be formatted as "+domain.DateLayout, nil)
			return
		}
		date = parsed
	}

	leads, err := query(c.Request.Context(), actor, date)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, leads)
}

func (h *Handler) GetActivityLog(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	entries, err := h.svc.GetActivityLog(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

func (h *Handler) QueryActivity(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	query := transport.ActivityQuery{Stage: c.Query("stage")}
	var ok2 bool
	if query.ActorID, ok2 = optionalUUID(c, "actorId"); !ok2 {
		return
	}
	var okTime bool
	if query.From, okTime = optionalTime(c, "from"); !okTime {
		return
	}
	if query.To, okTime = optionalTime(c, "to"); !okTime {
		return
	}

	entries, err := h.svc.QueryActivity(c.Request.Context(), actor, query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

func (h *Handler) GetFollowupHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, ok := leadIDParam(c)
	if !ok {
		return
	}

	query := transport.FollowupHistoryQuery{Department: c.Query("department")}
	var okQ bool
	if query.UpdatedBy, okQ = optionalUUID(c, "updatedBy"); !okQ {
		return
	}
	if query.From, okQ = optionalTime(c, "from"); !okQ {
		return
	}
	if query.To, okQ = optionalTime(c, "to"); !okQ {
		return
	}

	entries, err := h.svc.GetFollowupHistory(c.Request.Context(), actor, id, query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

func optionalUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, key+" must be a UUID", nil)
		return nil, false
	}
	return &parsed, true
}

func optionalTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, key+" must be an RFC 3339 timestamp", nil)
		return nil, false
	}
	return &parsed, true
}
