package version

import (
	"testing"

	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		binary        string
		config        string
		expectError   bool
		errorContains string
		code          errors.ErrorCode
	}{
		{name: "exact match", binary: "1.2.0", config: "1.2.0"},
		{name: "older config minor", binary: "1.3.0", config: "1.2.4"},
		{name: "patch differs", binary: "1.2.0", config: "1.2.9"},
		{name: "v prefix", binary: "v1.0.0", config: "v1.0.0"},
		{name: "empty config version", binary: "1.0.0", config: ""},
		{name: "dev binary", binary: "main", config: "7.0.0"},
		{name: "dev config", binary: "1.0.0", config: "main"},
		{
			name:          "newer config minor",
			binary:        "1.2.0",
			config:        "1.3.0",
			expectError:   true,
			errorContains: "newer than binary",
			code:          errors.ErrCodeVersionMismatch,
		},
		{
			name:          "major differs",
			binary:        "2.0.0",
			config:        "1.2.0",
			expectError:   true,
			errorContains: "major version mismatch",
			code:          errors.ErrCodeVersionMismatch,
		},
		{
			name:          "garbage config",
			binary:        "1.0.0",
			config:        "one",
			expectError:   true,
			errorContains: "invalid config version",
			code:          errors.ErrCodeInvalidVersion,
		},
		{
			name:          "garbage binary",
			binary:        "x.y",
			config:        "1.0.0",
			expectError:   true,
			errorContains: "invalid binary version",
			code:          errors.ErrCodeInvalidVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigCompatibility(tt.binary, tt.config)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Equal(t, tt.code, errors.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
