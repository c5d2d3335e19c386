package httpapi

import "os"

// defaultMaxUploadBytes caps a multipart upload (file plus form fields).
const defaultMaxUploadBytes int64 = 50 << 20

// maxBodyBytes controls the maximum allowed request body size for uploads.
var maxBodyBytes = defaultMaxUploadBytes

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxUploadBytes
		return
	}
	maxBodyBytes = n
}

// Upload and output directories. Uploads are removed after processing;
// outputs stay until fetched from /api/download.
var (
	uploadDir = os.TempDir()
	outputDir = "outputs"
)

// SetStorageDirs sets where uploads are staged and outputs written. Empty
// values keep the current setting.
func SetStorageDirs(upload, output string) {
	if upload != "" {
		uploadDir = upload
	}
	if output != "" {
		outputDir = output
	}
}

// allowedExtensions are the upload file types accepted by /api/upscale.
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
	"bmp":  true,
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
