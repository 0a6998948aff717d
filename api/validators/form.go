package validators

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

const maxMultipartMemory = 32 << 20

// FormFile is an uploaded file read fully into memory.
type FormFile struct {
	Filename string
	Content  []byte
}

// ParseMultipartForm parses the request as multipart form data.
func ParseMultipartForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// ReadFormFile pulls the named file out of a parsed multipart form.
// A missing file returns nil without error so callers can treat
// uploads as optional.
func ReadFormFile(r *http.Request, field string) (*FormFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read file upload").WithDetails(map[string]any{"field": field})
	}
	if len(content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uploaded file is empty").WithDetails(map[string]any{"field": field})
	}

	return &FormFile{Filename: header.Filename, Content: content}, nil
}

// RequireFormFile behaves like ReadFormFile but rejects a missing file.
func RequireFormFile(r *http.Request, field string) (*FormFile, error) {
	file, err := ReadFormFile(r, field)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required").WithDetails(map[string]any{"field": field})
	}
	return file, nil
}

// FormInt parses a required integer form value.
func FormInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "form field is required").WithDetails(map[string]any{"field": field})
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "form field must be numeric").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
