package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"culturecore/pkg/domain"
)

// maxAttachmentBytes caps uploaded photo payloads.
const maxAttachmentBytes = 16 << 20

// operationResponse is the envelope returned by lifecycle endpoints: the
// committed result plus any advisory rule violations.
type operationResponse struct {
	domain.OperationResult
	Violations []domain.Violation `json:"violations,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error      string             `json:"error"`
	Kind       string             `json:"kind"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP statuses: validation
// failures and blocked rules are client-correctable, conflicts are retryable
// after re-resolution, invariant violations are bugs.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation domain.ValidationError
	var conflict domain.ConflictError
	var notFound domain.ErrNotFound
	var blocked domain.RuleViolationError
	var invariant domain.InvariantViolation
	switch {
	case errors.As(err, &validation):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: "validation"})
	case errors.As(err, &blocked):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: "rule_violation", Violations: blocked.Result.Violations})
	case errors.As(err, &conflict):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Kind: "conflict"})
	case errors.As(err, &notFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Kind: "not_found"})
	case errors.As(err, &invariant):
		s.logger.Error("invariant violated", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: "invariant"})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: "internal"})
	}
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	return v, nil
}

func (s *Server) handleCreateCulture(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.Culture](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.CreateCulture(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCultures(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Store().ListCultures())
}

func (s *Server) handleCreateNomenclature(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.Nomenclature](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.CreateNomenclature(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.Batch](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.CreateBatch(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateReadyMedium(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.ReadyMedium](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.CreateReadyMedium(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateStoragePosition(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.StoragePosition](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.CreateStoragePosition(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSeedLot(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.SeedLotRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.SeedLot(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := s.svc.ListLotsForCulture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lots)
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.svc.ListContainersForLot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, containers)
}

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.svc.ListBanksForCulture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, banks)
}

func (s *Server) handleListVials(w http.ResponseWriter, r *http.Request) {
	vials, err := s.svc.ListVialsForBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, vials)
}

func (s *Server) handleDisposeLot(w http.ResponseWriter, r *http.Request) {
	lot, res, err := s.svc.DisposeLot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: domain.OperationResult{Lots: []domain.Lot{lot}}, Violations: res.Violations})
}

func (s *Server) handleApproveBank(w http.ResponseWriter, r *http.Request) {
	bank, _, err := s.svc.ApproveBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bank)
}

func (s *Server) handleRejectBank(w http.ResponseWriter, r *http.Request) {
	bank, _, err := s.svc.RejectBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bank)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	usage := domain.UsageTag(r.URL.Query().Get("usage"))
	if usage == "" {
		s.writeError(w, r, domain.ValidationError{Field: "usage", Reason: "required"})
		return
	}
	candidates, err := s.svc.ResolveCandidates(r.Context(), usage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.LowStock(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAliquots(w http.ResponseWriter, r *http.Request) {
	groups, singles, err := s.svc.AliquotGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "singles": singles})
}

func (s *Server) handleListOperations(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Store().ListOperations())
}

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.ObserveRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.Observe(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.FeedRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.Feed(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handlePassage(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.PassageRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.Passage(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.FreezeRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.Freeze(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handleThaw(w http.ResponseWriter, r *http.Request) {
	req, err := decode[domain.ThawRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, res, err := s.svc.Thaw(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, operationResponse{OperationResult: out, Violations: res.Violations})
}

func (s *Server) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAttachmentBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key, err := s.svc.AttachObservationPhoto(r.Context(), chi.URLParam(r, "id"), filename, r.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}
