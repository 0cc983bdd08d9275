package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
	"gorm.io/gorm"
)

// Attribute names key the asset attribute map, so they follow identifier syntax.
var attrNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

type AssetTypeHandler struct {
	db *gorm.DB
}

func NewAssetTypeHandler(db *gorm.DB) *AssetTypeHandler {
	return &AssetTypeHandler{db: db}
}

type CreateAssetTypeRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r CreateAssetTypeRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	return errs
}

// List handles GET /api/v1/asset-types
func (h *AssetTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var types []models.AssetType
	if err := h.db.
		Preload("Definitions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("organization_id = ?", orgID).
		Order("name ASC").
		Find(&types).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list asset types"})
		return
	}

	writeJSON(w, http.StatusOK, types)
}

// Create handles POST /api/v1/asset-types
func (h *AssetTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateAssetTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	// Name is unique per organization
	var existing models.AssetType
	if err := h.db.Where("organization_id = ? AND name = ?", orgID, req.Name).First(&existing).Error; err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Asset type name already in use"})
		return
	}

	at := models.AssetType{
		OrganizationID: orgID,
		Name:           req.Name,
		Icon:           req.Icon,
		Color:          req.Color,
		Description:    req.Description,
	}
	if err := h.db.Create(&at).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create asset type"})
		return
	}

	writeJSON(w, http.StatusCreated, at)
}

// Get handles GET /api/v1/asset-types/{id}
func (h *AssetTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}

	var at models.AssetType
	if err := h.db.
		Preload("Definitions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&at).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Asset type not found"})
		return
	}

	writeJSON(w, http.StatusOK, at)
}

// Delete handles DELETE /api/v1/asset-types/{id}
func (h *AssetTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}

	res := h.db.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.AssetType{})
	if res.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete asset type"})
		return
	}
	if res.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Asset type not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Asset type deleted"})
}

type CreateDefinitionRequest struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	FieldType  string   `json:"field_type"`
	IsRequired bool     `json:"is_required"`
	Options    []string `json:"options,omitempty"`
	Position   int      `json:"position"`
}

func (r CreateDefinitionRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Name == "" {
		errs["name"] = "Name is required"
	} else if !attrNameRegex.MatchString(r.Name) {
		errs["name"] = "Name must be a valid identifier"
	}
	if r.Label == "" {
		errs["label"] = "Label is required"
	}
	if _, err := schema.ParseFieldType(r.FieldType); err != nil {
		errs["field_type"] = "Invalid field type"
	}
	return errs
}

// CreateDefinition handles POST /api/v1/asset-types/{id}/definitions
func (h *AssetTypeHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}

	var req CreateDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var at models.AssetType
	if err := h.db.Where("id = ? AND organization_id = ?", typeID, orgID).First(&at).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Asset type not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load asset type"})
		return
	}

	// Name is unique within the asset type
	var existing models.AttributeDefinition
	if err := h.db.Where("asset_type_id = ? AND name = ?", typeID, req.Name).First(&existing).Error; err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Attribute name already in use"})
		return
	}

	fieldType, _ := schema.ParseFieldType(req.FieldType)
	def := models.AttributeDefinition{
		AssetTypeID: typeID,
		Name:        req.Name,
		Label:       req.Label,
		FieldType:   fieldType,
		IsRequired:  req.IsRequired,
		Options:     req.Options,
		Position:    req.Position,
	}
	if err := h.db.Create(&def).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create definition"})
		return
	}

	writeJSON(w, http.StatusCreated, def)
}

// DeleteDefinition handles DELETE /api/v1/asset-types/{id}/definitions/{defID}
func (h *AssetTypeHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}
	defID, err := uuid.Parse(chi.URLParam(r, "defID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid definition ID"})
		return
	}

	// Scope through the owning type to keep tenant isolation intact
	var at models.AssetType
	if err := h.db.Where("id = ? AND organization_id = ?", typeID, orgID).First(&at).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Asset type not found"})
		return
	}

	res := h.db.Where("id = ? AND asset_type_id = ?", defID, typeID).Delete(&models.AttributeDefinition{})
	if res.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete definition"})
		return
	}
	if res.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Definition not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Definition deleted"})
}
