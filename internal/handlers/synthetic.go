package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/types"
	"github.com/evalforge-dev/evalforge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestRequest struct {
	Name        string `json:"name" binding:"required"`
	ServiceName string `json:"service_name"`
	TestType    string `json:"test_type" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Method      string `json:"method"`

	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`

	ExpectedStatus           int    `json:"expected_status"`
	ExpectedResponseContains string `json:"expected_response_contains"`

	Timeout  int   `json:"timeout"`
	Interval int   `json:"interval"`
	IsActive *bool `json:"is_active"`

	AuthType        string          `json:"auth_type"`
	AuthCredentials json.RawMessage `json:"auth_credentials"`

	SSLCheckEnabled bool            `json:"ssl_check_enabled"`
	AlertConfig     json.RawMessage `json:"alert_config"`
}

func (r *TestRequest) apply(test *models.SyntheticTest) error {
	testType, err := types.ParseTestType(r.TestType)

	if err != nil {
		return err
	}

	test.Name = r.Name
	test.ServiceName = r.ServiceName
	test.TestType = string(testType)
	test.URL = r.URL

	test.Method = r.Method
	if test.Method == "" {
		test.Method = http.MethodGet
	}

	if r.Headers != nil {
		raw, err := json.Marshal(r.Headers)
		if err != nil {
			return errors.New("invalid headers")
		}
		test.Headers = datatypes.JSON(raw)
	}

	test.Body = datatypes.JSON(r.Body)

	test.ExpectedStatus = r.ExpectedStatus
	if test.ExpectedStatus == 0 {
		test.ExpectedStatus = http.StatusOK
	}

	test.ExpectedResponseContains = r.ExpectedResponseContains

	test.Timeout = r.Timeout
	if test.Timeout == 0 {
		test.Timeout = 30
	}

	test.Interval = r.Interval
	if test.Interval == 0 {
		test.Interval = 300
	}

	test.IsActive = r.IsActive == nil || *r.IsActive

	test.AuthType = r.AuthType
	if test.AuthType == "" {
		test.AuthType = types.AuthTypeNone
	}

	test.AuthCredentials = datatypes.JSON(r.AuthCredentials)
	test.SSLCheckEnabled = r.SSLCheckEnabled
	test.AlertConfig = datatypes.JSON(r.AlertConfig)

	return nil
}

func (h *Handler) ListTests(ctx *gin.Context) {
	var tests []models.SyntheticTest

	if err := db.DB.Find(&tests).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tests"})
		return
	}

	ctx.JSON(http.StatusOK, tests)
}

func (h *Handler) CreateTest(ctx *gin.Context) {
	var req TestRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var test models.SyntheticTest

	if err := req.apply(&test); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Create(&test).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create test"})
		return
	}

	h.scheduler.Schedule(test)

	ctx.JSON(http.StatusCreated, test)
}

func (h *Handler) UpdateTest(ctx *gin.Context) {
	testID, err := utils.IDParam(ctx, "test_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req TestRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var test models.SyntheticTest

	if err := db.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve test"})
		}
		return
	}

	if err := req.apply(&test); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Save(&test).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update test"})
		return
	}

	// A direct update is an explicit user action, so the job is replaced
	// immediately rather than waiting for the next reconcile pass.
	h.scheduler.Schedule(test)

	ctx.JSON(http.StatusOK, test)
}

func (h *Handler) DeleteTest(ctx *gin.Context) {
	testID, err := utils.IDParam(ctx, "test_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var test models.SyntheticTest

	if err := db.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve test"})
		}
		return
	}

	if err := db.DB.Delete(&test).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete test"})
		return
	}

	h.scheduler.Unschedule(test.ID)

	ctx.Status(http.StatusNoContent)
}

// ExecuteTestNow runs the test once, outside its schedule, and returns the
// recorded execution.
func (h *Handler) ExecuteTestNow(ctx *gin.Context) {
	testID, err := utils.IDParam(ctx, "test_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var test models.SyntheticTest

	if err := db.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve test"})
		}
		return
	}

	execution, err := h.synthetic.Run(ctx.Request.Context(), test)

	if err != nil {
		log.Printf("Failed to execute test %d: %v", test.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute test"})
		return
	}

	ctx.JSON(http.StatusOK, execution)
}

func (h *Handler) ListExecutions(ctx *gin.Context) {
	testID, err := utils.IDParam(ctx, "test_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	executions, err := h.store.RecentExecutions(testID, 50)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve executions"})
		return
	}

	ctx.JSON(http.StatusOK, executions)
}
