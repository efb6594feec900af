package request

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Upload is a binary part destined for a multipart body.
type Upload struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Form is the incoming form data an adapter forwards to the backend.
type Form struct {
	Values url.Values
	Files  map[string]*Upload
}

// MultipartSpec is the fixed interface of one upload endpoint. Only
// allow-listed fields are forwarded; anything else in the incoming form is
// silently dropped. The binary upload may arrive under any of FileAliases
// but always goes out exactly once under FileField.
type MultipartSpec struct {
	Fields      []string
	FileAliases []string
	FileField   string
}

// Encode writes the allow-listed fields of form, in declared order, into a
// multipart/form-data body and returns it with its content type.
func (s MultipartSpec) Encode(form Form) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range s.Fields {
		if form.Values == nil {
			break
		}
		if !form.Values.Has(field) {
			continue
		}
		if err := w.WriteField(field, form.Values.Get(field)); err != nil {
			return nil, "", errors.Wrapf(err, "failed to write field %q", field)
		}
	}

	if upload := s.pickUpload(form); upload != nil {
		if err := writeFilePart(w, s.FileField, upload); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to finalize multipart body")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// pickUpload returns the first alias that carries a binary upload.
func (s MultipartSpec) pickUpload(form Form) *Upload {
	for _, alias := range s.FileAliases {
		if u := form.Files[alias]; u != nil && len(u.Content) > 0 {
			return u
		}
	}
	return nil
}

func writeFilePart(w *multipart.Writer, field string, upload *Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		escapeQuotes(field), escapeQuotes(upload.Filename)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrap(err, "failed to create file part")
	}
	if _, err := part.Write(upload.Content); err != nil {
		return errors.Wrap(err, "failed to write file part")
	}
	return nil
}

func escapeQuotes(s string) string {
	r := strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
	return r.Replace(s)
}
