package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize bounds multipart bodies carrying an image (5MB).
const maxUploadSize = 5 << 20

// saveUpload extracts the named file field from an already-parsed multipart
// form, stores it under the uploads directory with a collision-free name and
// returns its public URL. An absent field is not an error: content can be
// created without an image, so the caller gets ("", nil) and proceeds.
func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".gif" && ext != ".webp" {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	newFileName := uuid.NewString() + ext
	newFilePath := filepath.Join(s.config.UploadPath, newFileName)

	dst, err := os.Create(newFilePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(newFilePath)
		return "", err
	}

	return "/public/uploads/" + newFileName, nil
}

// uploadOrLog wraps saveUpload with the tolerant policy content mutations
// use: a failed upload is logged and the record is saved without an image.
func (s *Server) uploadOrLog(r *http.Request, field string) string {
	url, err := s.saveUpload(r, field)
	if err != nil {
		s.log.Warn("image upload failed, continuing without image",
			zap.String("field", field),
			zap.Error(err),
		)
		return ""
	}
	return url
}
