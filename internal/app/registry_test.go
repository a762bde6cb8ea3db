package app

import (
	"net/http"
	"testing"
	"time"

	"go-timeclock/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		StaleThresholdHours:     12,
		AutoBreakThresholdHours: 5,
		AutoBreakMinutes:        45,
		ForgotNominalMinutes:    2,
		MinReasonLength:         20,
		HistoricalWindowDays:    14,
		CheckInRequestMaxAge:    48 * time.Hour,
	}
}

func TestPoliciesFromConfig(t *testing.T) {
	cfg := testConfig()

	sp := shiftPolicy(cfg)
	assert.Equal(t, 300, sp.Break.ThresholdMinutes)
	assert.Equal(t, 45, sp.Break.DeductMinutes)
	assert.Equal(t, 12*time.Hour, sp.StaleThreshold)
	assert.Equal(t, 2*time.Minute, sp.ForgotNominal)
	assert.Equal(t, 20, sp.MinReasonLength)
	assert.Equal(t, 14*24*time.Hour, sp.RevisionWindow)
	assert.Equal(t, time.Minute, sp.AllowedClockSkew)

	cp := checkInPolicy(cfg)
	assert.Equal(t, 20, cp.MinReasonLength)
	assert.Equal(t, 14*24*time.Hour, cp.HistoricalWindow)
	assert.Equal(t, 48*time.Hour, cp.MaxPendingAge)
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, &modules{}, nil, zap.NewNop())

	got := map[string]bool{}
	for _, route := range r.Routes() {
		got[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		http.MethodPost + " /api/v1/shifts/clock-in",
		http.MethodPost + " /api/v1/shifts/clock-out",
		http.MethodGet + " /api/v1/shifts/open",
		http.MethodPost + " /api/v1/shifts/:id/resolve",
		http.MethodPost + " /api/v1/shifts/:id/approve",
		http.MethodPost + " /api/v1/checkin-requests",
		http.MethodPost + " /api/v1/checkin-requests/:id/approve",
		http.MethodPost + " /api/v1/schedules/assignments",
		http.MethodPost + " /api/v1/push-tokens",
		http.MethodGet + " /api/v1/notifications",
	} {
		assert.True(t, got[want], want)
	}
}
