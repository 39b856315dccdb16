package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	ports "loyalty-subscription-core/internal/domain/ports/usecase"
	"loyalty-subscription-core/internal/infra/logging"
	"loyalty-subscription-core/internal/infra/metrics"
	"loyalty-subscription-core/internal/infra/redis"
	"loyalty-subscription-core/internal/usecase"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

// writeError maps domain sentinels to HTTP statuses and stable error kinds.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		status, kind = http.StatusNotFound, "code_not_found"
	case errors.Is(err, domain.ErrCodeExpired):
		status, kind = http.StatusGone, "code_expired"
	case errors.Is(err, domain.ErrCodeConsumed):
		status, kind = http.StatusConflict, "code_consumed"
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		status, kind = http.StatusNotFound, "subscription_not_found"
	case errors.Is(err, domain.ErrSubscriptionInactive):
		status, kind = http.StatusUnprocessableEntity, "subscription_inactive"
	case errors.Is(err, domain.ErrSubscriptionExpired):
		status, kind = http.StatusUnprocessableEntity, "subscription_expired"
	case errors.Is(err, domain.ErrNoVisitsRemaining):
		status, kind = http.StatusUnprocessableEntity, "no_visits_remaining"
	case errors.Is(err, domain.ErrRateLimited):
		status, kind = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, kind = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrTransientStore):
		status, kind = http.StatusServiceUnavailable, "store_unavailable"
	}
	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

type generateCodeRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type generateCodeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	claims := subscriberFrom(r.Context())
	var req generateCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SubscriptionID == "" {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(r.Context(), redis.IssueKey(claims.SubscriberID), s.limit.Limit, s.limit.Window)
		if err != nil {
			// Issuance must not depend on the rate limiter being up.
			s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !ok {
			s.writeError(w, r, domain.ErrRateLimited)
			return
		}
	}

	code, err := s.issuer.Issue(r.Context(), req.SubscriptionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncCodeIssued()
	writeJSON(w, http.StatusOK, generateCodeResponse{Success: true, Code: usecase.DisplayCode(code.Code)})
}

type codeRequest struct {
	Code string `json:"code"`
}

// decodeCodePayload accepts both forms the terminals send: the scanned QR
// payload {"code":"..."} and a manually typed bare code string.
func decodeCodePayload(r *http.Request) (string, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return "", domain.ErrInvalidArgument
	}
	var req codeRequest
	if err := json.Unmarshal(raw, &req); err == nil && req.Code != "" {
		return req.Code, nil
	}
	code := strings.TrimSpace(string(raw))
	if code == "" {
		return "", domain.ErrInvalidArgument
	}
	return code, nil
}

type eligibilityView struct {
	SubscriptionID   string `json:"subscriptionId"`
	SubscriptionName string `json:"subscriptionName"`
	SubscriberID     string `json:"subscriberId"`
	SubscriberName   string `json:"subscriberName"`
	PlaceID          string `json:"placeId"`
	PlaceName        string `json:"placeName"`
	Status           string `json:"status"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	RemainingVisits  *int   `json:"remainingVisits"`
}

func toEligibilityView(res *ports.EligibilityResult) eligibilityView {
	return eligibilityView{
		SubscriptionID:   res.SubscriptionID,
		SubscriptionName: res.SubscriptionName,
		SubscriberID:     res.SubscriberID,
		SubscriberName:   res.SubscriberName,
		PlaceID:          res.PlaceID,
		PlaceName:        res.PlaceName,
		Status:           string(res.Status),
		StartDate:        res.StartDate,
		EndDate:          res.EndDate,
		RemainingVisits:  res.RemainingVisits,
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	rawCode, err := decodeCodePayload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.validator.Check(r.Context(), rawCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]eligibilityView{"subscription": toEligibilityView(res)})
}

type redeemResponse struct {
	SubscriptionID  string `json:"subscriptionId"`
	RemainingVisits *int   `json:"remainingVisits"`
	PlaceID         string `json:"placeId"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	claims := operatorFrom(r.Context())
	rawCode, err := decodeCodePayload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	op := ports.Operator{ID: claims.OperatorID, PlaceID: claims.PlaceID, Role: claims.Role}
	start := time.Now()
	rec, err := s.redeemer.Redeem(r.Context(), rawCode, op)
	metrics.ObserveRedeemTx(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncRedemption("rejected")
		s.writeError(w, r, err)
		return
	}
	metrics.IncRedemption("success")
	writeJSON(w, http.StatusOK, redeemResponse{
		SubscriptionID:  rec.SubscriptionID,
		RemainingVisits: rec.RemainingVisitsAfter,
		PlaceID:         rec.PlaceID,
	})
}

type saveValidationRequest struct {
	SubscriberID     string `json:"subscriberId"`
	SubscriptionID   string `json:"subscriptionId"`
	SubscriptionName string `json:"subscriptionName"`
	RemainingVisits  *int   `json:"remainingVisits"`
	PlaceID          string `json:"placeId"`
	PlaceName        string `json:"placeName"`
	StaffID          string `json:"staffId"`
	OwnerID          string `json:"ownerId"`
	Status           string `json:"status"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
}

func (s *Server) handleSaveValidation(w http.ResponseWriter, r *http.Request) {
	var req saveValidationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	operatorID := req.StaffID
	if operatorID == "" {
		operatorID = req.OwnerID
	}
	if operatorID == "" {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	startDate, err1 := time.Parse(time.RFC3339, req.StartDate)
	endDate, err2 := time.Parse(time.RFC3339, req.EndDate)
	if err1 != nil || err2 != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	rec := &model.ValidationRecord{
		SubscriberID:         req.SubscriberID,
		SubscriptionID:       req.SubscriptionID,
		SubscriptionName:     req.SubscriptionName,
		PlaceID:              req.PlaceID,
		PlaceName:            req.PlaceName,
		OperatorID:           operatorID,
		RemainingVisitsAfter: req.RemainingVisits,
		Status:               model.UserSubscriptionStatus(req.Status),
		StartDate:            startDate,
		EndDate:              endDate,
	}
	if err := s.redeemer.Append(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type validationView struct {
	ID               string `json:"id"`
	SubscriberID     string `json:"subscriberId"`
	SubscriptionID   string `json:"subscriptionId"`
	SubscriptionName string `json:"subscriptionName"`
	PlaceID          string `json:"placeId"`
	PlaceName        string `json:"placeName"`
	OperatorID       string `json:"operatorId"`
	RemainingVisits  *int   `json:"remainingVisits"`
	Status           string `json:"status"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	CreatedAt        string `json:"createdAt"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	subscriberID := r.URL.Query().Get("subscriberId")
	var subscriptionID *string
	if v := r.URL.Query().Get("subscriptionId"); v != "" {
		subscriptionID = &v
	}

	recs, err := s.history.History(r.Context(), subscriberID, subscriptionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	views := make([]validationView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, validationView{
			ID:               rec.ID,
			SubscriberID:     rec.SubscriberID,
			SubscriptionID:   rec.SubscriptionID,
			SubscriptionName: rec.SubscriptionName,
			PlaceID:          rec.PlaceID,
			PlaceName:        rec.PlaceName,
			OperatorID:       rec.OperatorID,
			RemainingVisits:  rec.RemainingVisitsAfter,
			Status:           string(rec.Status),
			StartDate:        rec.StartDate.UTC().Format(time.RFC3339),
			EndDate:          rec.EndDate.UTC().Format(time.RFC3339),
			CreatedAt:        rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "validations": views})
}
