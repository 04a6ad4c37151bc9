package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/response"
	"github.com/stemsi/englishgpt-practice/internal/service"
	"github.com/stemsi/englishgpt-practice/internal/validator"
)

const keepAliveInterval = 30 * time.Second

// ResultHandler serves persisted results and the live results feed.
type ResultHandler struct {
	rdb           *redis.Client
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(rdb *redis.Client, resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		rdb:           rdb,
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/practice/results?page=1&per_page=10&category=grammar
func (h *ResultHandler) ListResults(c *gin.Context) {
	var q model.ListResultsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, pagination, err := h.resultService.List(c.Request.Context(), q.Category, q.Page, q.PerPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// Stats godoc
// GET /api/v1/practice/stats
func (h *ResultHandler) Stats(c *gin.Context) {
	stats, err := h.resultService.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Result stats failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": stats})
}

// StreamResults godoc
// GET /api/v1/practice/results/stream
// Server-sent events for every session graded by this deployment.
func (h *ResultHandler) StreamResults(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ResultsChannel())
	defer pubsub.Close()

	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Msg("Results subscription failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
	c.Writer.Flush()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Debug().Msg("Client attached to results stream")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Client detached from results stream")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(c, "result", []byte(msg.Payload))

		case <-keepAliveTicker.C:
			writeSSE(c, "ping", pingPayload)
		}
	}
}

func writeSSE(c *gin.Context, event string, data []byte) {
	c.Writer.Write([]byte("event: " + event + "\n"))
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
