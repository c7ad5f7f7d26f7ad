package extractor

import (
	"context"
	"strings"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

// Extractor dispatches on MIME type: PDF bytes go through the PDF parser,
// text/* decodes directly. Anything else is a validation error.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	switch {
	case mimeType == "application/pdf":
		return extractPDF(ctx, data)
	case strings.HasPrefix(mimeType, "text/"):
		return extractPlainText(data)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errUnsupportedMIME(mimeType))
	}
}

type errUnsupportedMIME string

func (e errUnsupportedMIME) Error() string {
	return "unsupported file type: " + string(e)
}
