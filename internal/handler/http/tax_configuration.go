package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type TaxConfigurationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Activate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetActive(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type taxConfigurationHandlerImpl struct {
	configService tax.ConfigurationService
}

func NewTaxConfigurationHandler(configService tax.ConfigurationService) TaxConfigurationHandler {
	return &taxConfigurationHandlerImpl{configService: configService}
}

func (h *taxConfigurationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req tax.CreateConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.configService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Tax configuration created", result)
}

func (h *taxConfigurationHandlerImpl) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid configuration ID", map[string]string{"id": "must be a UUIDv7"})
		return
	}

	result, err := h.configService.Activate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tax configuration activated", result)
}

func (h *taxConfigurationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid configuration ID", map[string]string{"id": "must be a UUIDv7"})
		return
	}

	result, err := h.configService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *taxConfigurationHandlerImpl) GetActive(w http.ResponseWriter, r *http.Request) {
	jurisdiction, ok := jurisdictionFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.configService.GetActive(r.Context(), jurisdiction)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *taxConfigurationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	jurisdiction, ok := jurisdictionFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.configService.List(r.Context(), jurisdiction)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func jurisdictionFromQuery(w http.ResponseWriter, r *http.Request) (tax.Jurisdiction, bool) {
	query := r.URL.Query()
	jurisdiction := tax.Jurisdiction{
		Country: query.Get("country"),
		State:   query.Get("state"),
	}
	if validator.IsEmpty(jurisdiction.Country) {
		response.BadRequest(w, "Query parameter 'country' is required", map[string]string{"country": "is required"})
		return tax.Jurisdiction{}, false
	}
	return jurisdiction, true
}
