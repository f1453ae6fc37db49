package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"styleai/internal/domain"
)

const defaultMaxUpload = 20 << 20

type enhanceInput struct {
	Image       []byte
	Filename    string
	Style       string
	Mode        string
	Instruction string
}

type enhanceJSON struct {
	Image       string `json:"image"`
	Filename    string `json:"filename"`
	Style       string `json:"style"`
	Mode        string `json:"mode"`
	Instruction string `json:"instruction"`
}

// parseEnhanceInput accepts either a multipart form with an "image" file or
// a JSON body carrying a data URL or bare base64 string.
func (a *App) parseEnhanceInput(w http.ResponseWriter, r *http.Request) (enhanceInput, error) {
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	// base64 inflates by 4/3, leave room for the JSON envelope as well.
	r.Body = http.MaxBytesReader(w, r.Body, limit*4/3+(64<<10))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var in enhanceInput
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(limit); err != nil {
			return in, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return in, fmt.Errorf("%w: image file is required", domain.ErrInvalidImage)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			return in, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
		}
		in = enhanceInput{
			Image:       data,
			Filename:    header.Filename,
			Style:       r.FormValue("style"),
			Mode:        r.FormValue("mode"),
			Instruction: r.FormValue("instruction"),
		}
	} else {
		var body enhanceJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, fmt.Errorf("%w: invalid payload", domain.ErrInvalidImage)
		}
		data, err := decodeImageField(body.Image)
		if err != nil {
			return in, err
		}
		in = enhanceInput{
			Image:       data,
			Filename:    body.Filename,
			Style:       body.Style,
			Mode:        body.Mode,
			Instruction: body.Instruction,
		}
	}

	if len(in.Image) == 0 {
		return in, fmt.Errorf("%w: image is required", domain.ErrInvalidImage)
	}
	if int64(len(in.Image)) > limit {
		return in, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, limit)
	}
	in.Style = strings.ToLower(strings.TrimSpace(in.Style))
	if in.Style == "" {
		in.Style = domain.StyleCinematic
	}
	in.Instruction = strings.TrimSpace(in.Instruction)
	in.Filename = cleanFilename(in.Filename)
	return in, nil
}

// decodeImageField strips an optional data URL prefix and decodes base64.
func decodeImageField(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidImage)
	}
	if strings.HasPrefix(v, "data:") {
		_, payload, ok := strings.Cut(v, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data url", domain.ErrInvalidImage)
		}
		v = payload
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(v, "="))
		if rawErr != nil {
			return nil, errors.Join(domain.ErrInvalidImage, err)
		}
	}
	return data, nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
