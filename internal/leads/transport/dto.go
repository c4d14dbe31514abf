package transport

import (
	"time"

	"leadflow_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	Company      string `json:"company" validate:"required,min=1,max=200"`
	ContactName  string `json:"contactName" validate:"required,min=1,max=100"`
	ContactPhone string `json:"contactPhone" validate:"required,min=5,max=20"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	Requirement  string `json:"requirement,omitempty" validate:"omitempty,max=2000"`
	// Stage is honored only for the cross-department head; everyone else
	// creates into their own department.
	Stage string `json:"stage,omitempty" validate:"omitempty,oneof=tele field associate corporate technical solution quotation payments"`
}

type FollowUpRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time" validate:"required"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type ChangeStageRequest struct {
	TargetStage string     `json:"targetStage" validate:"required,oneof=tele field associate corporate technical solution quotation payments"`
	Reason      string     `json:"reason" validate:"required,min=1,max=500"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty" validate:"-"`
}

type AssignRequest struct {
	AssigneeID uuid.UUID `json:"assigneeId" validate:"required"`
}

// Query DTOs

type ActivityQuery struct {
	ActorID *uuid.UUID
	Stage   string
	From    *time.Time
	To      *time.Time
}

type FollowupHistoryQuery struct {
	UpdatedBy  *uuid.UUID
	Department string
	From       *time.Time
	To         *time.Time
}

// Response DTOs

type FollowUpResponse struct {
	Reason string `json:"reason"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

type LeadResponse struct {
	ID           uuid.UUID         `json:"id"`
	Stage        string            `json:"stage"`
	Status       string            `json:"status"`
	AssigneeID   *uuid.UUID        `json:"assigneeId,omitempty"`
	FollowUp     *FollowUpResponse `json:"followUp,omitempty"`
	Company      string            `json:"company"`
	ContactName  string            `json:"contactName"`
	ContactPhone string            `json:"contactPhone"`
	ContactEmail *string           `json:"contactEmail,omitempty"`
	Requirement  *string           `json:"requirement,omitempty"`
	CreatedBy    uuid.UUID         `json:"createdBy"`
	Revision     int64             `json:"revision"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type ActivityResponse struct {
	ID          int64      `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	ChangeType  string     `json:"changeType"`
	OldStage    string     `json:"oldStage"`
	NewStage    string     `json:"newStage"`
	OldStatus   string     `json:"oldStatus"`
	NewStatus   string     `json:"newStatus"`
	OldAssignee *uuid.UUID `json:"oldAssigneeId,omitempty"`
	NewAssignee *uuid.UUID `json:"newAssigneeId,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	ActorID     uuid.UUID  `json:"actorId"`
	ActorRole   string     `json:"actorRole"`
	Timestamp   time.Time  `json:"timestamp"`
}

type FollowupHistoryResponse struct {
	ID               int64             `json:"id"`
	LeadID           uuid.UUID         `json:"leadId"`
	PreviousFollowUp *FollowUpResponse `json:"previousFollowUp"`
	NewFollowUp      *FollowUpResponse `json:"newFollowUp"`
	UpdatedBy        uuid.UUID         `json:"updatedBy"`
	Department       string            `json:"department"`
	Timestamp        time.Time         `json:"timestamp"`
}

// Mappers

func ToLeadResponse(lead repository.Lead) LeadResponse {
	resp := LeadResponse{
		ID:           lead.ID,
		Stage:        lead.Stage,
		Status:       lead.Status,
		AssigneeID:   lead.AssignedEmployeeID,
		Company:      lead.Company,
		ContactName:  lead.ContactName,
		ContactPhone: lead.ContactPhone,
		ContactEmail: lead.ContactEmail,
		Requirement:  lead.Requirement,
		CreatedBy:    lead.CreatedBy,
		Revision:     lead.Revision,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
	if lead.FollowupReason != nil && lead.FollowupDate != nil && lead.FollowupTime != nil {
		resp.FollowUp = &FollowUpResponse{
			Reason: *lead.FollowupReason,
			Date:   *lead.FollowupDate,
			Time:   *lead.FollowupTime,
		}
	}
	return resp
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	responses := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, ToLeadResponse(lead))
	}
	return responses
}

func ToActivityResponses(entries []repository.ActivityEntry) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ActivityResponse{
			ID:          entry.ID,
			LeadID:      entry.LeadID,
			ChangeType:  entry.ChangeType,
			OldStage:    entry.OldStage,
			NewStage:    entry.NewStage,
			OldStatus:   entry.OldStatus,
			NewStatus:   entry.NewStatus,
			OldAssignee: entry.OldAssignee,
			NewAssignee: entry.NewAssignee,
			Reason:      entry.Reason,
			ActorID:     entry.ActorID,
			ActorRole:   entry.ActorRole,
			Timestamp:   entry.CreatedAt,
		})
	}
	return responses
}

func ToFollowupHistoryResponses(entries []repository.FollowupEntry) []FollowupHistoryResponse {
	responses := make([]FollowupHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, FollowupHistoryResponse{
			ID:               entry.ID,
			LeadID:           entry.LeadID,
			PreviousFollowUp: followUpFrom(entry.PrevReason, entry.PrevDate, entry.PrevTime),
			NewFollowUp:      followUpFrom(entry.NewReason, entry.NewDate, entry.NewTime),
			UpdatedBy:        entry.UpdatedBy,
			Department:       entry.Department,
			Timestamp:        entry.CreatedAt,
		})
	}
	return responses
}

func followUpFrom(reason, date, timeOfDay *string) *FollowUpResponse {
	if reason == nil || date == nil || timeOfDay == nil {
		return nil
	}
	return &FollowUpResponse{Reason: *reason, Date: *date, Time: *timeOfDay}
}
