package builder

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"slices"
	"strings"
)

// MaxConceptArtBytes is the largest concept art upload that is accepted.
const MaxConceptArtBytes int64 = 5 * 1024 * 1024

// AcceptedImageTypes lists the MIME types accepted for concept art. It doubles
// as the accept filter of the file picker.
var AcceptedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// File is a single file selected by the user. Size and ContentType are the
// values declared by the client; Open gives access to the content.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileFromHeader wraps an uploaded multipart file.
func FileFromHeader(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FileFromBytes wraps an in-memory file.
func FileFromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// MediaType returns the declared content type without parameters, lower cased.
func (f File) MediaType() string {
	return normalizeMediaType(f.ContentType)
}

func normalizeMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// IsAcceptedImageType reports whether mediaType is on the concept art allow-list.
func IsAcceptedImageType(mediaType string) bool {
	return slices.Contains(AcceptedImageTypes, normalizeMediaType(mediaType))
}

// ValidateConceptArt checks the declared size and type of a selected file.
// It does not read the file.
func ValidateConceptArt(f File) error {
	var c collector
	checkConceptArt(&c, f.Size, f.MediaType())
	return c.err()
}

func checkConceptArt(c *collector, size int64, mediaType string) {
	if size > MaxConceptArtBytes {
		c.add(FieldConceptArt, MsgFileTooLarge)
		return
	}
	if !IsAcceptedImageType(mediaType) {
		c.add(FieldConceptArt, MsgUnsupportedType)
	}
}
