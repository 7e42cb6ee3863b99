package storage

import (
	"bytes"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the amount of header mimetype inspects by default.
const sniffLen = 3072

// AllowedDocumentTypes are the MIME types accepted for uploads.
var AllowedDocumentTypes = []string{"application/pdf", "image/png", "image/jpeg", "text/plain"}

// Sniff detects the content type of r from its leading bytes. The returned
// reader yields the full original stream. allowed is false when the type is
// not in AllowedDocumentTypes.
func Sniff(r io.Reader) (mime string, body io.Reader, allowed bool, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, false, err
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	body = io.MultiReader(bytes.NewReader(head), r)

	for _, a := range AllowedDocumentTypes {
		if detected.Is(a) {
			return a, body, true, nil
		}
	}
	return detected.String(), body, false, nil
}
