package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models/dto"
	"github.com/vmelnikov/unifed/internal/app/services"
)

// reportDateFormat is the wire format for the attendance window bounds.
const reportDateFormat = "2006-01-02"

// ReportController handles the federated report endpoints
type ReportController struct {
	attendance *services.AttendanceService
	audience   *services.AudienceService
	group      *services.GroupReportService
	logger     zerolog.Logger
}

// NewReportController creates a new ReportController
func NewReportController(attendance *services.AttendanceService, audience *services.AudienceService,
	group *services.GroupReportService, logger zerolog.Logger) *ReportController {
	return &ReportController{
		attendance: attendance,
		audience:   audience,
		group:      group,
		logger:     logger,
	}
}

// Attendance returns the worst-attendance ranking for lectures matching
// the search term, over the [from, to] window.
func (c *ReportController) Attendance(ctx *gin.Context) {
	searchTerm := ctx.Query("search")
	if searchTerm == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Search term is required").WithField("search")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	from, err := time.Parse(reportDateFormat, ctx.Query("from"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid from date, want YYYY-MM-DD").WithField("from")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	to, err := time.Parse(reportDateFormat, ctx.Query("to"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid to date, want YYYY-MM-DD").WithField("to")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	// Make the window inclusive of the whole final day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	report, err := c.attendance.WorstAttendance(ctx, searchTerm, from, to)
	if err != nil {
		c.logger.Error().Err(err).Msg("Attendance report failed")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeStoreError, "Failed to build attendance report")
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// Audience returns per-lecture audience sizes for one course in one year.
func (c *ReportController) Audience(ctx *gin.Context) {
	courseName := ctx.Query("course")
	if courseName == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Course name is required").WithField("course")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Year must be a number").WithField("year")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	report, err := c.audience.CourseAudience(ctx, courseName, year)
	if err != nil {
		c.logger.Error().Err(err).Msg("Audience report failed")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeStoreError, "Failed to build audience report")
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// Group returns the workload report of one group.
func (c *ReportController) Group(ctx *gin.Context) {
	groupName := ctx.Query("name")
	if groupName == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Group name is required").WithField("name")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	report, err := c.group.Report(ctx, groupName)
	if err != nil {
		c.logger.Error().Err(err).Msg("Group report failed")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeStoreError, "Failed to build group report")
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}
