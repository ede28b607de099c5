package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/myadmin/myadmin/internal/ledger"
)

const maxImportSize = 10 << 20

// ListTransactions lists mutaties of the active tenant
// @Summary List transactions
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param account query string false "Debet or credit account"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} ledger.Transaction
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/ledger/transactions [get]
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		f   ledger.Filter
		err error
	)
	if f.From, err = parseDate(q.Get("from")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	if f.To, err = parseDate(q.Get("to")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}
	if f.Limit, err = parseInt(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if f.Offset, err = parseInt(q.Get("offset")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	f.Account = strings.TrimSpace(q.Get("account"))

	txs, err := h.ledger.List(r.Context(), GetTenant(r.Context()), f)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

// TransactionRequest is a booking posted by the client. Administration may
// be omitted; it then defaults to the active tenant.
type TransactionRequest struct {
	Date           string          `json:"date" example:"2024-01-31"`
	Description    string          `json:"description" example:"Albert Heijn 1234"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Debet          string          `json:"debet" example:"4000"`
	Credit         string          `json:"credit" example:"1002"`
	Ref1           string          `json:"ref1,omitempty"`
	Ref2           string          `json:"ref2,omitempty"`
	Ref3           string          `json:"ref3,omitempty"`
	Ref4           string          `json:"ref4,omitempty"`
	Administration string          `json:"administration,omitempty" example:"GoodwinSolutions"`
}

// CreateTransaction books one transaction in the active tenant
// @Summary Create transaction
// @Description The administration field must equal the active tenant.
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param request body TransactionRequest true "Transaction"
// @Success 201 {object} ledger.Transaction
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/ledger/transactions [post]
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := time.Parse(ledger.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)

	tx := &ledger.Transaction{
		Date:           date,
		Description:    req.Description,
		Amount:         req.Amount,
		Debet:          strings.TrimSpace(req.Debet),
		Credit:         strings.TrimSpace(req.Credit),
		Ref1:           req.Ref1,
		Ref2:           req.Ref2,
		Ref3:           req.Ref3,
		Ref4:           req.Ref4,
		Administration: strings.TrimSpace(req.Administration),
	}
	if tx.Administration == "" {
		tx.Administration = active
	}

	if err := h.ledger.Create(ctx, p, active, tx); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

// LatestTemplate returns the newest booking whose description starts with
// prefix
// @Summary Latest booking template
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param prefix query string true "Description prefix"
// @Success 200 {object} ledger.Transaction
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/ledger/templates [get]
func (h *Handler) LatestTemplate(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	if prefix == "" {
		respondError(w, http.StatusBadRequest, "prefix is required")
		return
	}
	tx, err := h.ledger.LatestTemplate(r.Context(), GetTenant(r.Context()), prefix)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// ImportTransactions books a bank CSV export in the active tenant
// @Summary Import bank CSV
// @Description Parses the file with the named profile, fills counter accounts from booking history and inserts all rows in one transaction.
// @Tags Ledger
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param profile formData string true "Import profile name"
// @Param dry_run formData bool false "Preview without booking"
// @Param file formData file true "CSV export"
// @Success 200 {object} ledger.ImportResult
// @Success 201 {object} ledger.ImportResult
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/ledger/import [post]
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	profile, found := h.profiles[r.FormValue("profile")]
	if !found {
		respondError(w, http.StatusBadRequest, "unknown import profile")
		return
	}
	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)

	rows, err := ledger.ParseCSV(file, profile, active)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	res, err := h.ledger.Import(ctx, p.Actor(), ledger.ImportBatch{
		Tenant:  active,
		Source:  header.Filename,
		Profile: profile,
		Rows:    rows,
	}, dryRun)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	respondJSON(w, status, res)
}

func parseDate(s string) (time.Time, error) {
	if s = strings.TrimSpace(s); s == "" {
		return time.Time{}, nil
	}
	return time.Parse(ledger.DateLayout, s)
}

func parseInt(s string) (int, error) {
	if s = strings.TrimSpace(s); s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
