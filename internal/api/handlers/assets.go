package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/inventory"
	"github.com/hugh/stockroom/internal/lifecycle"
	"gorm.io/gorm"
)

type AssetHandler struct {
	db        *gorm.DB
	inventory *inventory.Service
	lifecycle *lifecycle.Resolver
}

func NewAssetHandler(db *gorm.DB, inv *inventory.Service, lc *lifecycle.Resolver) *AssetHandler {
	return &AssetHandler{db: db, inventory: inv, lifecycle: lc}
}

type CreateAssetRequest struct {
	AssetTypeID string              `json:"asset_type_id"`
	Name        string              `json:"name"`
	Status      string              `json:"status,omitempty"`
	Attributes  models.AttributeMap `json:"attributes,omitempty"`
}

func (r CreateAssetRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if _, err := uuid.Parse(r.AssetTypeID); err != nil {
		errs["asset_type_id"] = "Invalid asset type ID"
	}
	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	return errs
}

type AssetResponse struct {
	ID          string              `json:"id"`
	AssetTypeID string              `json:"asset_type_id"`
	AssetTag    string              `json:"asset_tag"`
	Name        string              `json:"name"`
	Status      string              `json:"status"`
	Attributes  models.AttributeMap `json:"attributes,omitempty"`
	Source      string              `json:"source,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

func assetToResponse(asset *models.Asset) AssetResponse {
	return AssetResponse{
		ID:          asset.ID.String(),
		AssetTypeID: asset.AssetTypeID.String(),
		AssetTag:    asset.AssetTag,
		Name:        asset.Name,
		Status:      string(asset.Status),
		Attributes:  asset.Attributes,
		Source:      asset.Source,
		CreatedAt:   asset.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/assets
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Asset{}).Where("organization_id = ?", orgID)
	if typeID := r.URL.Query().Get("asset_type_id"); typeID != "" {
		query = query.Where("asset_type_id = ?", typeID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count assets"})
		return
	}

	var assets []models.Asset
	if err := query.
		Order("asset_tag ASC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&assets).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list assets"})
		return
	}

	response := make([]AssetResponse, len(assets))
	for i, asset := range assets {
		response[i] = assetToResponse(&asset)
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Create handles POST /api/v1/assets
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	typeID, _ := uuid.Parse(req.AssetTypeID)
	asset, err := h.inventory.CreateAsset(r.Context(), orgID, inventory.CreateAssetInput{
		AssetTypeID: typeID,
		Name:        req.Name,
		Status:      models.AssetStatus(req.Status),
		Attributes:  req.Attributes,
		ActorID:     userID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, assetToResponse(asset))
}

// Get handles GET /api/v1/assets/{id}
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset ID"})
		return
	}

	asset, err := h.inventory.GetAsset(r.Context(), orgID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assetToResponse(asset))
}

type UpdateAttributesRequest struct {
	Attributes models.AttributeMap `json:"attributes"`
}

// UpdateAttributes handles PUT /api/v1/assets/{id}/attributes
func (h *AssetHandler) UpdateAttributes(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset ID"})
		return
	}

	var req UpdateAttributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	asset, err := h.inventory.UpdateAttributes(r.Context(), orgID, id, req.Attributes, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assetToResponse(asset))
}

type TransitionRequest struct {
	ToStatus string `json:"to_status"`
}

// Transition handles POST /api/v1/assets/{id}/transition
func (h *AssetHandler) Transition(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset ID"})
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	to := models.AssetStatus(req.ToStatus)
	if !models.IsValidStatus(to) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
		return
	}

	asset, err := h.inventory.GetAsset(r.Context(), orgID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.lifecycle.Apply(r.Context(), asset, to, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assetToResponse(asset))
}
