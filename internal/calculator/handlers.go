package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/session"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

var validate = validator.New()

// Handler serves the calculator endpoints on top of a session store.
type Handler struct {
	store      *session.Store
	engineOpts []engine.Option
}

// NewHandler returns a Handler backed by store. engineOpts configure the
// throwaway engines used by POST /calculator/evaluate and should match the
// options the store was built with.
func NewHandler(store *session.Store, engineOpts ...engine.Option) *Handler {
	return &Handler{store: store, engineOpts: engineOpts}
}

// ---------------------------------------------------------------------------
// Handlers — session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.session.create")
	defer span.End()

	id, err := h.store.Create()
	if err != nil {
		sessionError(ctx, span, logger, "create", err, w)
		return
	}

	var resp SessionResponse
	err = h.store.Do(id, func(e *engine.Engine) error {
		resp = sessionResponse(id, e, nil)
		return nil
	})
	if err != nil {
		sessionError(ctx, span, logger, "create", err, w)
		return
	}

	sessionsCounter.Add(ctx, 1)
	span.SetAttributes(attribute.String("session.id", id))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.session.get")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("session.id", id))

	var resp SessionResponse
	err := h.store.Do(id, func(e *engine.Engine) error {
		resp = sessionResponse(id, e, nil)
		return nil
	})
	if err != nil {
		sessionError(ctx, span, logger, "get", err, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.session.delete")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("session.id", id))

	if !h.store.Delete(id) {
		sessionError(ctx, span, logger, "delete", session.ErrNotFound, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handlers — input
// ---------------------------------------------------------------------------

// ApplyAction handles POST /calculator/sessions/{id}/actions
func (h *Handler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.session.action")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("session.id", id))

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "action", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if err := validate.Struct(req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "action", "invalid action", err, http.StatusBadRequest, w)
		return
	}

	action, err := engine.ParseAction(req.Action, req.Value)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "action", "invalid action", err, http.StatusBadRequest, w)
		return
	}

	var resp SessionResponse
	err = h.store.Do(id, func(e *engine.Engine) error {
		out := applyAction(ctx, logger, e, action)
		resp = sessionResponse(id, e, out.Notices)
		return nil
	})
	if err != nil {
		sessionError(ctx, span, logger, "action", err, w)
		return
	}

	span.SetAttributes(attribute.String("calculator.display", resp.Display))
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// ApplyKeys handles POST /calculator/sessions/{id}/keys. Unbound keys are
// skipped and counted, the same way a keydown handler ignores them.
func (h *Handler) ApplyKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.session.keys")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("session.id", id))

	req, ok := decodeKeys(ctx, span, logger, "keys", w, r)
	if !ok {
		return
	}

	var resp SessionResponse
	err := h.store.Do(id, func(e *engine.Engine) error {
		var notices []engine.Notice
		ignored := 0
		for _, key := range req.Keys {
			action, bound := engine.KeyAction(key)
			if !bound {
				ignored++
				continue
			}
			out := applyAction(ctx, logger, e, action)
			notices = append(notices, out.Notices...)
		}
		resp = sessionResponse(id, e, notices)
		resp.Ignored = ignored
		return nil
	})
	if err != nil {
		sessionError(ctx, span, logger, "keys", err, w)
		return
	}

	span.SetAttributes(
		attribute.Int("calculator.keys", len(req.Keys)),
		attribute.Int("calculator.keys.ignored", resp.Ignored),
		attribute.String("calculator.display", resp.Display),
	)
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Handler — stateless replay (demonstrates nested spans)
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate — replays a key sequence on a
// fresh engine, creating a child span for every key. This produces a
// multi-level trace that is ideal for visualising in Jaeger / Grafana Tempo.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r, "calculator.evaluate")
	defer span.End()

	req, ok := decodeKeys(ctx, span, logger, "evaluate", w, r)
	if !ok {
		return
	}

	span.SetAttributes(attribute.Int("calculator.keys", len(req.Keys)))

	e := engine.New(h.engineOpts...)
	steps := make([]KeyStep, 0, len(req.Keys))
	var notices []engine.Notice
	ignored := 0

	for i, key := range req.Keys {
		action, bound := engine.KeyAction(key)
		if !bound {
			ignored++
			continue
		}

		stepCtx, stepSpan := tracer.Start(ctx, fmt.Sprintf("calculator.evaluate.key.%d", i),
			trace.WithAttributes(
				attribute.Int("calculator.key.index", i),
				attribute.String("calculator.key", key),
				attribute.String("calculator.action", action.String()),
				attribute.String("calculator.display.before", e.Render()),
			),
		)

		out := applyAction(stepCtx, logger, e, action)

		stepSpan.SetAttributes(attribute.String("calculator.display.after", out.Display))
		stepSpan.SetStatus(codes.Ok, "")
		stepSpan.End()

		notices = append(notices, out.Notices...)
		steps = append(steps, KeyStep{Key: key, Action: action.String(), Display: out.Display})
	}

	st := e.State()
	resp := EvaluateResponse{
		Steps:    steps,
		Display:  e.Render(),
		Operands: st.Operands,
		Operator: st.Operator.String(),
		Notices:  noticesResponse(notices),
		Ignored:  ignored,
	}

	span.AddEvent("evaluate.complete", trace.WithAttributes(
		attribute.String("display", resp.Display),
		attribute.Int("steps", len(steps)),
		attribute.Int("ignored", ignored),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("key sequence evaluated",
		zap.Int("keys", len(req.Keys)),
		zap.Int("ignored", ignored),
		zap.String("display", resp.Display),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func startSpan(r *http.Request, name string) (context.Context, trace.Span, *zap.Logger) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
	return ctx, span, observability.LoggerWithTrace(ctx)
}

func decodeKeys(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, w http.ResponseWriter, r *http.Request) (KeysRequest, bool) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid keys", err, http.StatusBadRequest, w)
		return req, false
	}
	return req, true
}

// applyAction runs one engine transition and records its metrics, notices
// and, after an evaluation, the resulting value.
func applyAction(ctx context.Context, logger *zap.Logger, e *engine.Engine, action engine.Action) engine.Outcome {
	start := time.Now()
	out := e.Apply(action)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6 // ms

	attrs := metric.WithAttributes(attribute.String("action", action.Kind.String()))
	actionsCounter.Add(ctx, 1, attrs)
	actionHistogram.Record(ctx, elapsed, attrs)

	span := trace.SpanFromContext(ctx)
	for _, n := range out.Notices {
		noticesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(n.Kind))))
		span.AddEvent("calculator.notice", trace.WithAttributes(
			attribute.String("kind", string(n.Kind)),
			attribute.String("message", n.Message),
		))
		logger.Warn("calculator notice",
			zap.String("kind", string(n.Kind)),
			zap.String("message", n.Message),
			zap.String("action", action.String()),
		)
	}

	if action.Kind == engine.ActionEvaluate {
		if v, err := strconv.ParseFloat(out.Display, 64); err == nil {
			resultGauge.Record(ctx, v)
		}
	}

	logger.Debug("calculator action applied",
		zap.String("action", action.String()),
		zap.String("display", out.Display),
		zap.Float64("duration_ms", elapsed),
	)

	return out
}

func sessionError(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		observability.RecordError(ctx, span, logger, errorCounter, opName, "session not found", err, http.StatusNotFound, w)
	case errors.Is(err, session.ErrStoreFull):
		observability.RecordError(ctx, span, logger, errorCounter, opName, "too many sessions", err, http.StatusServiceUnavailable, w)
	default:
		observability.RecordError(ctx, span, logger, errorCounter, opName, "internal error", err, http.StatusInternalServerError, w)
	}
}
