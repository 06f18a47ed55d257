package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/generator"
	"github.com/vmelnikov/unifed/internal/app/models/dto"
	"github.com/vmelnikov/unifed/internal/app/services"
)

// SyncController handles dataset generation and synchronization
type SyncController struct {
	generatorCfg generator.Config
	synchronizer *services.Synchronizer
	logger       zerolog.Logger
}

// NewSyncController creates a new SyncController
func NewSyncController(generatorCfg generator.Config, synchronizer *services.Synchronizer,
	logger zerolog.Logger) *SyncController {
	return &SyncController{
		generatorCfg: generatorCfg,
		synchronizer: synchronizer,
		logger:       logger,
	}
}

// GenerateRequest optionally overrides the configured generation sizes.
// Zero values keep the configured defaults.
type GenerateRequest struct {
	Seed     uint64 `json:"seed"`
	Students int    `json:"students"`
	Groups   int    `json:"groups"`
	Courses  int    `json:"courses"`
}

// Generate produces a fresh dataset and fans it out to all five stores.
// The HTTP status mirrors the sync outcome: 200 when every store took the
// write, 207 when a projection store failed, 502 when the relational
// authority write failed and nothing else was attempted.
func (c *SyncController) Generate(ctx *gin.Context) {
	var req GenerateRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid generation request")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail.WithDetails(err.Error())))
			return
		}
	}

	cfg := c.generatorCfg
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Students > 0 {
		cfg.Students = req.Students
	}
	if req.Groups > 0 {
		cfg.Groups = req.Groups
	}
	if req.Courses > 0 {
		cfg.Courses = req.Courses
	}

	ds := generator.New(cfg).Generate()
	report, err := c.synchronizer.Synchronize(ctx, ds)
	if err != nil {
		// Authority write failed; the report still carries the details.
		ctx.JSON(http.StatusBadGateway, dto.NewAPIResponse(report))
		return
	}
	status := http.StatusOK
	if !report.AllOK() {
		status = http.StatusMultiStatus
	}
	ctx.JSON(status, dto.NewAPIResponse(report))
}
