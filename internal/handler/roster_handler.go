package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/export"
	"github.com/mentoria-app/mentoria-api/pkg/response"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RosterHandler exposes roster classification and overflow reporting.
type RosterHandler struct {
	rosters *service.RosterService
	csv     csvRenderer
	pdf     pdfRenderer
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(rosters *service.RosterService, csv csvRenderer, pdf pdfRenderer) *RosterHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &RosterHandler{rosters: rosters, csv: csv, pdf: pdf}
}

// Roster godoc
// @Summary Classify a class roster into enrolled and overflow
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/roster [get]
func (h *RosterHandler) Roster(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("id"))
	if err != nil || classID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class id must be a positive integer"))
		return
	}

	split, err := h.rosters.ClassifyRoster(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, split, nil)
}

// OverflowReport godoc
// @Summary Report classes whose roster exceeds capacity
// @Tags Classes
// @Produce json
// @Param format query string false "Output format: json, csv or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/overflow-report [get]
func (h *RosterHandler) OverflowReport(c *gin.Context) {
	report, err := h.rosters.OverflowReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		response.JSON(c, http.StatusOK, report, nil)
	case "csv":
		payload, err := h.csv.Render(overflowDataset(report))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="overflow-report.csv"`)
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(overflowDataset(report), "Overflow Report")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="overflow-report.pdf"`)
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
	}
}

func overflowDataset(report []models.ClassOverflow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Class ID", "Class", "Enrolled", "Overflow Position", "Student ID", "Student", "Enrolled At"},
	}
	for _, entry := range report {
		for i, enrollment := range entry.Overflow {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Class ID":          strconv.Itoa(entry.Class.ID),
				"Class":             entry.Class.Name,
				"Enrolled":          strconv.Itoa(entry.Enrolled),
				"Overflow Position": fmt.Sprintf("%d", i+1),
				"Student ID":        strconv.Itoa(enrollment.StudentID),
				"Student":           enrollment.StudentName,
				"Enrolled At":       enrollment.EnrolledAt.Format("2006-01-02 15:04"),
			})
		}
	}
	return dataset
}
