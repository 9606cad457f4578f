package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/mzaverin/dropspace/internal/client/models"
)

// Describe turns local file paths into the descriptors the upload simulator
// consumes. No file contents are read; only name, size, and type.
func Describe(paths []string) ([]models.FileDescriptor, error) {
	descriptors := make([]models.FileDescriptor, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("describing %s: %w", p, err)
		}
		if fi.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(p))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		descriptors = append(descriptors, models.FileDescriptor{
			Name:      filepath.Base(p),
			SizeBytes: fi.Size(),
			MimeType:  mimeType,
		})
	}
	return descriptors, nil
}
