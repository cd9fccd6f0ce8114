package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/translator"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// StartRequest is the body of POST /api/start. Absent fields keep the
// parameters of the previous run.
type StartRequest struct {
	Setup         *types.SetupName `json:"setup,omitempty"`
	PreviousClose *float64         `json:"previous_close,omitempty"`
	Leverage      *float64         `json:"leverage,omitempty"`
	Ratio         *float64         `json:"ratio,omitempty"`
	Symbol        *string          `json:"symbol,omitempty"`
	FeedMode      *types.FeedMode  `json:"feed_mode,omitempty"`
	MarketPrice   *float64         `json:"market_price,omitempty"`
}

// Params converts the request to engine start parameters.
func (r StartRequest) Params() engine.StartParams {
	return engine.StartParams{
		Setup:         fromPtr(r.Setup),
		PreviousClose: fromPtr(r.PreviousClose),
		Leverage:      fromPtr(r.Leverage),
		Ratio:         fromPtr(r.Ratio),
		Symbol:        fromPtr(r.Symbol),
		FeedMode:      fromPtr(r.FeedMode),
		MarketPrice:   fromPtr(r.MarketPrice),
	}
}

func fromPtr[T any](v *T) optional.Option[T] {
	if v == nil {
		return optional.None[T]()
	}

	return optional.Some(*v)
}

// TranslateRequest is the body of POST /api/translate. Leverage defaults to
// the current run's leverage. Without market_price the response carries
// distance levels.
type TranslateRequest struct {
	Side            types.Side `json:"side" validate:"required,oneof=LONG SHORT"`
	Entry           float64    `json:"entry" validate:"gt=0"`
	Stop            float64    `json:"stop" validate:"gt=0"`
	Target          float64    `json:"target" validate:"gt=0"`
	UnderlyingPrice *float64   `json:"underlying_price,omitempty" validate:"omitempty,gt=0"`
	MarketPrice     *float64   `json:"market_price,omitempty" validate:"omitempty,gt=0"`
	Ratio           *float64   `json:"ratio,omitempty" validate:"omitempty,gt=0"`
	Leverage        *float64   `json:"leverage,omitempty" validate:"omitempty,gt=0"`
}

// TranslateResponse echoes the advisory levels with their translation.
type TranslateResponse struct {
	Side       types.Side             `json:"side"`
	Entry      float64                `json:"entry"`
	Stop       float64                `json:"stop"`
	Target     float64                `json:"target"`
	RiskReward float64                `json:"risk_reward"`
	Levels     types.DerivativeLevels `json:"levels"`
}

// SetupInfo describes one selectable setup.
type SetupInfo struct {
	Name        types.SetupName `json:"name"`
	DisplayName string          `json:"display_name"`
	Params      map[string]any  `json:"params"`
}

type errorResponse struct {
	Error    string           `json:"error"`
	Code     errors.ErrorCode `json:"code"`
	Category errors.Category  `json:"category"`
}

type statusResponse struct {
	Status  types.EngineStatus `json:"status"`
	Running bool               `json:"running"`
	RunID   string             `json:"run_id,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest

	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid JSON body", err))

			return
		}
	}

	if err := s.engine.Start(req.Params()); err != nil {
		s.writeError(w, err)

		return
	}

	s.writeStatus(w)
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.engine.Stop()
	s.writeStatus(w)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid JSON body", err))

		return
	}

	if err := validate.Struct(req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid translate request", err))

		return
	}

	params := s.engine.Params()

	leverage := params.Leverage
	if req.Leverage != nil {
		leverage = *req.Leverage
	}

	underlying := req.Entry
	if req.UnderlyingPrice != nil {
		underlying = *req.UnderlyingPrice
	}

	ratio := optional.Some(params.Ratio)
	if req.Ratio != nil {
		ratio = optional.Some(*req.Ratio)
	}

	sig := types.Signal{
		Side:   req.Side,
		Entry:  req.Entry,
		Stop:   req.Stop,
		Target: req.Target,
	}

	trans := translator.New(translator.Config{
		Leverage:  leverage,
		LongISIN:  s.cfg.Turbo.LongISIN,
		ShortISIN: s.cfg.Turbo.ShortISIN,
	})

	s.writeJSON(w, http.StatusOK, TranslateResponse{
		Side:       req.Side,
		Entry:      req.Entry,
		Stop:       req.Stop,
		Target:     req.Target,
		RiskReward: sig.RiskReward(),
		Levels:     trans.Translate(sig, underlying, fromPtr(req.MarketPrice), ratio),
	})
}

func (s *Server) handleSetups(w http.ResponseWriter, _ *http.Request) {
	setups := make([]SetupInfo, 0, len(types.AllSetups))
	for _, name := range types.AllSetups {
		setups = append(setups, SetupInfo{
			Name:        name,
			DisplayName: name.DisplayName(),
			Params:      s.cfg.SetupParams(name),
		})
	}

	s.writeJSON(w, http.StatusOK, setups)
}

func (s *Server) writeStatus(w http.ResponseWriter) {
	snap := s.engine.Snapshot()

	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:  snap.Status,
		Running: s.engine.IsRunning(),
		RunID:   snap.RunID,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.IsConfigurationError(err) {
		status = http.StatusBadRequest
	}

	code := errors.GetCode(err)

	s.log.Debug("Request failed", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code, Category: code.Category()})
}
