package rekognition

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MinConfidence drops faces Rekognition reports below this confidence (0..1)
	MinConfidence float64

	// ReencodeQuality is the JPEG quality used when a photo exceeds the API size limit
	ReencodeQuality int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:          "us-east-1",
		MinConfidence:   0,
		ReencodeQuality: 85,
	}
}
