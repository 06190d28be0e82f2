package validation

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
)

// maxFileNameLength bounds the client-supplied file name kept in dataset metadata.
const maxFileNameLength = 255

// multipartOverhead is the room left for multipart boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// Upload is a file read from a multipart request.
type Upload struct {
	FileName string
	Content  []byte
}

// ReadUpload reads the named multipart file field, enforcing maxBytes on the
// file content. Directory components of the client file name are dropped.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.ErrFileTooLarge
		}
		return nil, apperrors.NewBadRequestError(err, "Invalid multipart form")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apperrors.ErrNoFile
		}
		return nil, apperrors.NewBadRequestError(err, "Invalid file field")
	}
	defer file.Close()

	name := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	v := NewValidator()
	v.Required(field, strings.Trim(name, "./")).
		MaxLength(field, name, maxFileNameLength)
	if v.HasErrors() {
		return nil, v.Errors()
	}

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError(err, "Failed to read uploaded file")
	}
	if int64(len(content)) > maxBytes {
		return nil, apperrors.ErrFileTooLarge
	}
	if len(content) == 0 {
		return nil, apperrors.ErrNoFile
	}

	return &Upload{FileName: name, Content: content}, nil
}

// ParseStringQueryParam safely parses a string query parameter
func ParseStringQueryParam(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}
