package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsWhenEnvUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Detection.StopPipelineOnHighConfidence)
	assert.Equal(t, 2, cfg.Detection.QuasiIdentifier.MinGroupSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ReadsOverridesFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DETECTION_REPORTING_THRESHOLD", "0.65")
	t.Setenv("QI_MIN_GROUP_SIZE", "3")

	cfg := Load()
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.InDelta(t, 0.65, cfg.Detection.ReportingThreshold, 0.0001)
	assert.Equal(t, 3, cfg.Detection.QuasiIdentifier.MinGroupSize)
}

func TestValidate_RejectsMissingDatabaseHost(t *testing.T) {
	cfg := Load()
	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvertedGroupSizeBounds(t *testing.T) {
	cfg := Load()
	cfg.Detection.QuasiIdentifier.MinGroupSize = 4
	cfg.Detection.QuasiIdentifier.MaxGroupSize = 2
	assert.Error(t, cfg.Validate())
}
