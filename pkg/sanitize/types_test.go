package sanitize_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

func TestRunConfig_Validate(t *testing.T) {
	t.Run("valid with no stages", func(t *testing.T) {
		cfg := sanitize.RunConfig{DatabaseName: "shop"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing database", func(t *testing.T) {
		cfg := sanitize.RunConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, sanitize.ErrInvalidConfig))
	})

	t.Run("aggregates every failure", func(t *testing.T) {
		cfg := sanitize.RunConfig{Stages: []string{"users", "", "users"}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DatabaseName is required")
		assert.Contains(t, err.Error(), "stage name cannot be empty")
		assert.Contains(t, err.Error(), `stage "users" selected twice`)
	})
}

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method sanitize.AuthMethod
		want   string
		valid  bool
	}{
		{sanitize.AuthMethodStandard, "Standard", true},
		{sanitize.AuthMethodAWSIAM, "AWS IAM", true},
		{sanitize.AuthMethodGoogleIAM, "Google IAM", true},
		{sanitize.AuthMethodAzureEntraID, "Azure Entra ID", true},
		{sanitize.AuthMethod(42), "Unknown(42)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.method.String())
		assert.Equal(t, tt.valid, tt.method.IsValid())
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "first_name", sanitize.KindFirstName.String())
	assert.Equal(t, "digits4", sanitize.KindDigits4.String())
	assert.Equal(t, "Kind(99)", sanitize.Kind(99).String())
	assert.False(t, sanitize.Kind(-1).IsValid())
}

func TestSummary(t *testing.T) {
	s := sanitize.Summary{Stages: []sanitize.StageResult{
		{Name: "comments", Status: sanitize.StageCompleted, Failed: 1},
		{Name: "users", Status: sanitize.StageCompleted, Failed: 2},
		{Name: "woocommerce", Status: sanitize.StageSkipped},
	}}

	assert.Equal(t, int64(3), s.TotalFailed())

	st, ok := s.Stage("woocommerce")
	require.True(t, ok)
	assert.Equal(t, "skipped", st.Status.String())

	_, ok = s.Stage("gravityforms")
	assert.False(t, ok)
}
