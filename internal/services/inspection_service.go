package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/monroy-qms/api/internal/models"
)

const recentListLimit = 200

type InspectionRepository interface {
	List(ctx context.Context, clientID *string, limit int) ([]*models.Inspection, error)
	GetByID(ctx context.Context, id string) (*models.Inspection, error)
	LatestForEquipment(ctx context.Context, equipmentID string) (*models.Inspection, error)
	Create(ctx context.Context, in *models.Inspection) (*models.Inspection, error)
}

type PFMEARepository interface {
	ListByInspection(ctx context.Context, inspectionID string) ([]*models.PFMEAItem, error)
	Create(ctx context.Context, p *models.PFMEAItem) (*models.PFMEAItem, error)
}

// EquipmentLookup resolves equipment by id.
type EquipmentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
}

// CreateInspectionInput is an inspector's report for one piece of equipment.
type CreateInspectionInput struct {
	EquipmentID           string
	Type                  string
	DatePerformed         time.Time
	FindingsText          *string
	NonConformance        bool
	CertificateIssued     bool
	CertificateExpiryDate *time.Time
}

// CreatePFMEAInput is one failure mode raised against an inspection.
type CreatePFMEAInput struct {
	FailureMode      string
	FailureCause     string
	FailureEffect    string
	ExistingControls *string
	Severity         int
	Occurrence       int
	Detection        int
}

type InspectionService struct {
	repo      InspectionRepository
	pfmea     PFMEARepository
	equipment EquipmentLookup
	audit     AuditRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewInspectionService(repo InspectionRepository, pfmea PFMEARepository, equipment EquipmentLookup, audit AuditRecorder, logger *slog.Logger) *InspectionService {
	return &InspectionService{
		repo:      repo,
		pfmea:     pfmea,
		equipment: equipment,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the most recent inspections visible in scope.
func (s *InspectionService) List(ctx context.Context, scope models.TenantScope) ([]*models.Inspection, error) {
	items, err := s.repo.List(ctx, scope.ClientFilter(""), recentListLimit)
	if err != nil {
		s.logger.Error("failed to list inspections", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

// Create records an inspection. Client and site are taken from the equipment
// and the caller is the inspector.
func (s *InspectionService) Create(ctx context.Context, inspectorID string, in CreateInspectionInput, meta RequestMeta) (*models.Inspection, error) {
	eq, err := s.equipment.GetByID(ctx, in.EquipmentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load equipment", slog.String("equipment_id", in.EquipmentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if in.CertificateIssued && in.CertificateExpiryDate == nil {
		return nil, models.NewValidationError("certificateExpiryDate is required when a certificate is issued")
	}
	if !in.CertificateIssued {
		in.CertificateExpiryDate = nil
	}

	created, err := s.repo.Create(ctx, &models.Inspection{
		InspectionCode:        NewInspectionCode(s.now()),
		EquipmentID:           eq.ID,
		ClientID:              eq.ClientID,
		SiteID:                eq.SiteID,
		InspectorID:           inspectorID,
		Type:                  strings.TrimSpace(in.Type),
		DatePerformed:         in.DatePerformed,
		FindingsText:          in.FindingsText,
		NonConformance:        in.NonConformance,
		CertificateIssued:     in.CertificateIssued,
		CertificateExpiryDate: in.CertificateExpiryDate,
		Status:                models.InspectionStatusSubmitted,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create inspection", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("inspection created",
		slog.String("inspection_id", created.ID),
		slog.String("equipment_id", created.EquipmentID),
	)
	s.audit.Record(ctx, meta.entry(inspectorID, models.AuditActionInspectionCreate, models.AuditEntityInspection, created.ID))
	return created, nil
}

// getInspection loads an inspection and checks it is visible in scope.
func (s *InspectionService) getInspection(ctx context.Context, scope models.TenantScope, id string) (*models.Inspection, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get inspection", slog.String("inspection_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if err := scope.Authorize(insp.ClientID); err != nil {
		return nil, err
	}
	return insp, nil
}

// ListPFMEA returns the PFMEA rows of an inspection.
func (s *InspectionService) ListPFMEA(ctx context.Context, scope models.TenantScope, inspectionID string) ([]*models.PFMEAItem, error) {
	if _, err := s.getInspection(ctx, scope, inspectionID); err != nil {
		return nil, err
	}

	items, err := s.pfmea.ListByInspection(ctx, inspectionID)
	if err != nil {
		s.logger.Error("failed to list pfmea items", slog.String("inspection_id", inspectionID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

// AddPFMEA scores a failure mode and attaches it to an inspection.
func (s *InspectionService) AddPFMEA(ctx context.Context, actorID string, scope models.TenantScope, inspectionID string, in CreatePFMEAInput, meta RequestMeta) (*models.PFMEAItem, error) {
	insp, err := s.getInspection(ctx, scope, inspectionID)
	if err != nil {
		return nil, err
	}

	severity := models.ClampScore(in.Severity)
	occurrence := models.ClampScore(in.Occurrence)
	detection := models.ClampScore(in.Detection)
	rpn := models.CalcRPN(severity, occurrence, detection)

	created, err := s.pfmea.Create(ctx, &models.PFMEAItem{
		InspectionID:     insp.ID,
		EquipmentID:      insp.EquipmentID,
		ClientID:         insp.ClientID,
		FailureMode:      strings.TrimSpace(in.FailureMode),
		FailureCause:     strings.TrimSpace(in.FailureCause),
		FailureEffect:    strings.TrimSpace(in.FailureEffect),
		ExistingControls: in.ExistingControls,
		Severity:         severity,
		Occurrence:       occurrence,
		Detection:        detection,
		RPN:              rpn,
		RiskLevel:        models.RiskLevelFromRPN(rpn),
		Status:           models.PFMEAStatusOpen,
	})
	if err != nil {
		s.logger.Error("failed to create pfmea item", slog.String("inspection_id", inspectionID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionPFMEACreate, models.AuditEntityPFMEA, created.ID))
	return created, nil
}
