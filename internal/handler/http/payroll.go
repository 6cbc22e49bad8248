package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Preview
	Preview(w http.ResponseWriter, r *http.Request)

	// Batches
	CreateBatch(w http.ResponseWriter, r *http.Request)
	GetBatch(w http.ResponseWriter, r *http.Request)
	RunBatch(w http.ResponseWriter, r *http.Request)
	CancelBatch(w http.ResponseWriter, r *http.Request)
	RecomputeTotals(w http.ResponseWriter, r *http.Request)
	ListPayslips(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payslipService payroll.PayslipService
	processor      payroll.BatchProcessor
	runner         payroll.BatchJobRunner
}

func NewPayrollHandler(payslipService payroll.PayslipService, processor payroll.BatchProcessor, runner payroll.BatchJobRunner) PayrollHandler {
	return &payrollHandlerImpl{
		payslipService: payslipService,
		processor:      processor,
		runner:         runner,
	}
}

type batchStatusResponse struct {
	payroll.BatchResponse
	Running bool `json:"running"`
}

// ========== PREVIEW ==========

func (h *payrollHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	var req payroll.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payslipService.Preview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== BATCHES ==========

func (h *payrollHandlerImpl) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	batch, err := h.processor.CreateBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll batch created", payroll.NewBatchResponse(batch))
}

func (h *payrollHandlerImpl) GetBatch(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	if periodID == "" {
		response.BadRequest(w, "Period ID is required", nil)
		return
	}

	batch, err := h.processor.GetBatch(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, batchStatusResponse{
		BatchResponse: payroll.NewBatchResponse(batch),
		Running:       h.runner.IsRunning(periodID),
	})
}

// RunBatch starts the run in the background. An empty body runs every
// active employee.
func (h *payrollHandlerImpl) RunBatch(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	if periodID == "" {
		response.BadRequest(w, "Period ID is required", nil)
		return
	}

	var req payroll.RunBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := validator.Struct(req); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.runner.Start(r.Context(), periodID, req.EmployeeIDs); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Payroll batch run started", map[string]string{"period_id": periodID})
}

func (h *payrollHandlerImpl) CancelBatch(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	if periodID == "" {
		response.BadRequest(w, "Period ID is required", nil)
		return
	}

	if err := h.runner.Cancel(periodID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch run cancelled", map[string]string{"period_id": periodID})
}

func (h *payrollHandlerImpl) RecomputeTotals(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	if periodID == "" {
		response.BadRequest(w, "Period ID is required", nil)
		return
	}

	// unknown periods would otherwise report zero totals
	if _, err := h.processor.GetBatch(r.Context(), periodID); err != nil {
		response.HandleError(w, err)
		return
	}

	totals, err := h.processor.UpdateTotals(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, totals)
}

func (h *payrollHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	if periodID == "" {
		response.BadRequest(w, "Period ID is required", nil)
		return
	}

	payslips, err := h.processor.ListPayslips(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, payroll.NewPayslipResponse(p))
	}

	response.Success(w, result)
}
