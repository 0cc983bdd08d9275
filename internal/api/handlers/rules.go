package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/lifecycle"
	"gorm.io/gorm"
)

type RuleHandler struct {
	db       *gorm.DB
	resolver *lifecycle.Resolver
}

func NewRuleHandler(db *gorm.DB, resolver *lifecycle.Resolver) *RuleHandler {
	return &RuleHandler{db: db, resolver: resolver}
}

type CreateRuleRequest struct {
	AssetTypeID    *string  `json:"asset_type_id,omitempty"` // null = organization-wide
	FromStatus     string   `json:"from_status"`
	ToStatus       string   `json:"to_status"`
	RequiredFields []string `json:"required_fields,omitempty"`
}

func (r CreateRuleRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if !models.IsValidStatus(models.AssetStatus(r.FromStatus)) {
		errs["from_status"] = "Invalid status"
	}
	if !models.IsValidStatus(models.AssetStatus(r.ToStatus)) {
		errs["to_status"] = "Invalid status"
	}
	if r.FromStatus == r.ToStatus {
		errs["to_status"] = "From and to status must differ"
	}
	if r.AssetTypeID != nil && *r.AssetTypeID != "" {
		if _, err := uuid.Parse(*r.AssetTypeID); err != nil {
			errs["asset_type_id"] = "Invalid asset type ID"
		}
	}
	return errs
}

// List handles GET /api/v1/transition-rules
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var rules []models.TransitionRule
	if err := h.db.
		Where("organization_id = ?", orgID).
		Order("from_status ASC, to_status ASC").
		Find(&rules).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list rules"})
		return
	}

	writeJSON(w, http.StatusOK, rules)
}

// Create handles POST /api/v1/transition-rules
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	rule := models.TransitionRule{
		OrganizationID: orgID,
		FromStatus:     models.AssetStatus(req.FromStatus),
		ToStatus:       models.AssetStatus(req.ToStatus),
		RequiredFields: req.RequiredFields,
	}
	if req.AssetTypeID != nil && *req.AssetTypeID != "" {
		typeID, _ := uuid.Parse(*req.AssetTypeID)
		// The scoped type must belong to this org
		var at models.AssetType
		if err := h.db.Where("id = ? AND organization_id = ?", typeID, orgID).First(&at).Error; err != nil {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Asset type not found"})
			return
		}
		rule.AssetTypeID = &typeID
	}

	// One rule per (org, type, from, to) edge
	scope := h.db.Where("organization_id = ? AND from_status = ? AND to_status = ?",
		orgID, rule.FromStatus, rule.ToStatus)
	if rule.AssetTypeID != nil {
		scope = scope.Where("asset_type_id = ?", *rule.AssetTypeID)
	} else {
		scope = scope.Where("asset_type_id IS NULL")
	}
	var existing models.TransitionRule
	if err := scope.First(&existing).Error; err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Rule already exists for this edge"})
		return
	}

	if err := h.db.Create(&rule).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create rule"})
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// Delete handles DELETE /api/v1/transition-rules/{id}
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid rule ID"})
		return
	}

	res := h.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.TransitionRule{})
	if res.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete rule"})
		return
	}
	if res.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Rule not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Rule deleted"})
}

// Resolve handles GET /api/v1/transition-rules/resolve. It is a dry-run check
// a UI can use to enable or disable transition buttons.
func (h *RuleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	typeID, err := uuid.Parse(r.URL.Query().Get("asset_type_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}
	from := models.AssetStatus(r.URL.Query().Get("from"))
	to := models.AssetStatus(r.URL.Query().Get("to"))
	if !models.IsValidStatus(from) || !models.IsValidStatus(to) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
		return
	}

	decision, err := h.resolver.Resolve(r.Context(), orgID, typeID, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to resolve transition"})
		return
	}

	writeJSON(w, http.StatusOK, decision)
}
