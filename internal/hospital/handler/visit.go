package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/HospitalLedger/internal/hospital/service"
	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"go.uber.org/zap"
)

// CodePatientNotFound is the "code" field of a lookup-miss response. Clients
// use it to tell a missing patient apart from an unmatched route.
const CodePatientNotFound = "patient_not_found"

// VisitHandler exposes the visit ledger over HTTP.
type VisitHandler struct {
	svc    *service.VisitService
	logger *zap.Logger
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(svc *service.VisitService, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{svc: svc, logger: logger}
}

// Register mounts the visit routes on the given router group.
func (h *VisitHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/visits", h.AddVisit)
	rg.GET("/visits", h.FindVisits)
	rg.GET("/ledger", h.Overview)
}

// AddVisit handles POST /visits.
func (h *VisitHandler) AddVisit(c *gin.Context) {
	var in service.VisitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	res, err := h.svc.AddVisit(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingField):
			c.JSON(http.StatusBadRequest, gin.H{"error": "please fill all fields", "detail": err.Error()})
		case errors.Is(err, service.ErrInvalidCost), errors.Is(err, service.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("add visit", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add visit"})
		}
		return
	}

	c.JSON(http.StatusCreated, res)
}

// FindVisits handles GET /visits?name=. The name travels as a query
// parameter so free text such as "Smith/Jones" reaches the store intact.
func (h *VisitHandler) FindVisits(c *gin.Context) {
	name := c.Query("name")

	recs, err := h.svc.FindVisits(c.Request.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":  CodePatientNotFound,
				"error": "patient " + ledger.PatientKey(name) + " not found in the ledger",
			})
		case errors.Is(err, service.ErrMissingField):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("find visits", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_key": ledger.PatientKey(name),
		"visits":      recs,
	})
}

// Overview handles GET /ledger — returns patient and visit counts.
func (h *VisitHandler) Overview(c *gin.Context) {
	patients, visits, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("ledger stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}
	SetLedgerGauges(patients, visits)

	c.JSON(http.StatusOK, gin.H{
		"patients": patients,
		"visits":   visits,
	})
}
