package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"country_facts/backend/go/internal/models"
	"country_facts/backend/go/pkg/httpmiddleware"
	"country_facts/backend/go/pkg/logger"
)

// FactsService is what the handlers need from the service layer.
type FactsService interface {
	GenerateFacts(ctx context.Context, country string) (models.FactSet, error)
	Answer(ctx context.Context, country, question string) (models.ChatAnswer, error)
	Health() models.HealthStatus
}

// API provides handlers for the facts service.
type API struct {
	service FactsService
	logger  *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(service FactsService, logger *logger.Logger) *API {
	return &API{service: service, logger: logger}
}

type generateFactsRequest struct {
	Country string `json:"country"`
}

type chatRequest struct {
	Country  string `json:"country"`
	Question string `json:"question"`
}

// GenerateFactsHandler handles POST /generate-facts.
func (a *API) GenerateFactsHandler(c *gin.Context) {
	log := httpmiddleware.GetLogger(c, a.logger)

	var req generateFactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, log, "Invalid request payload", err.Error())
		return
	}
	country := strings.TrimSpace(req.Country)
	if country == "" {
		a.badRequest(c, log, "Country name is required", "blank country")
		return
	}

	log.WithField("country", country).Info("Generating facts")
	set, err := a.service.GenerateFacts(c.Request.Context(), country)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeInternal, StatusCode: http.StatusInternalServerError}).Error("Failed to generate facts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate facts"})
		return
	}

	c.JSON(http.StatusOK, set)
}

// ChatHandler handles POST /chat.
func (a *API) ChatHandler(c *gin.Context) {
	log := httpmiddleware.GetLogger(c, a.logger)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, log, "Invalid request payload", err.Error())
		return
	}
	country := strings.TrimSpace(req.Country)
	question := strings.TrimSpace(req.Question)
	if country == "" || question == "" {
		a.badRequest(c, log, "Country and question are required", "blank country or question")
		return
	}

	answer, err := a.service.Answer(c.Request.Context(), country, question)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeInternal, StatusCode: http.StatusInternalServerError}).Error("Failed to answer question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, answer)
}

// HealthHandler handles GET /health.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.service.Health())
}

func (a *API) badRequest(c *gin.Context, log *logger.Logger, message, detail string) {
	log.WithError(models.ErrorInfo{Message: detail, Type: models.ErrorTypeValidation, StatusCode: http.StatusBadRequest}).Warn(message)
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
