// Package kbhttp exposes the query pipeline over HTTP.
package kbhttp

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kb-connector/internal/domain"
	"kb-connector/internal/infra/logger"
	"kb-connector/internal/usecase"
)

// Handler serves knowledge-base query requests.
type Handler struct {
	answerUsecase usecase.AnswerQueryUsecase
	ctxLogger     *logger.ContextLogger
}

// NewHandler creates the HTTP handler.
func NewHandler(answerUsecase usecase.AnswerQueryUsecase, ctxLogger *logger.ContextLogger) *Handler {
	return &Handler{answerUsecase: answerUsecase, ctxLogger: ctxLogger}
}

// HistoryTurn is one prior conversation message in a query request.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryRequest is the POST /v1/kb/query payload.
type QueryRequest struct {
	Query      string        `json:"query"`
	Collection string        `json:"collection,omitempty"`
	History    []HistoryTurn `json:"history,omitempty"`
}

// QueryResponse carries the final answer text.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// Query answers a question against the knowledge base.
// (POST /v1/kb/query)
func (h *Handler) Query(ctx echo.Context) error {
	var req QueryRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	history := make([]domain.ConversationTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, domain.ConversationTurn{
			Role:    domain.TurnRole(turn.Role),
			Content: turn.Content,
		})
	}

	reqCtx := ctx.Request().Context()
	if requestID := ctx.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		reqCtx = logger.WithRequestID(reqCtx, requestID)
	}
	if req.Collection != "" {
		reqCtx = logger.WithCollection(reqCtx, req.Collection)
	}

	log := h.ctxLogger.WithContext(reqCtx)
	log.Info("query_received", "history_turns", len(req.History))

	start := time.Now()
	answer := h.answerUsecase.Execute(reqCtx, usecase.AnswerQueryInput{
		Query:      req.Query,
		History:    history,
		Collection: req.Collection,
	})
	log.Info("query_answered", "elapsed_ms", time.Since(start).Milliseconds())

	return ctx.JSON(http.StatusOK, QueryResponse{Answer: answer})
}

// Register wires the handler's routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.RequestID())
	e.POST("/v1/kb/query", h.Query)
}
