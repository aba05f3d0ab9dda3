package face

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/config"
)

func TestNewFaceDetector(t *testing.T) {
	tests := []struct {
		name         string
		detectorType string
		wantName     string
		wantErr      bool
	}{
		{"rekognition", "rekognition", "rekognition", false},
		{"empty defaults to rekognition", "", "rekognition", false},
		{"deepface", "deepface", "deepface", false},
		{"mock", "mock", "mock", false},
		{"unknown", "opencv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DetectorType: tt.detectorType,
				AWSRegion:    "us-east-1",
				DeepFaceURL:  "http://deepface:5005",
			}

			detector, err := NewFaceDetector(cfg, aws.Config{Region: "us-east-1"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown detector type")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, detector.Name())
		})
	}
}
