package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text content is not valid utf-8")
	}
	return strings.TrimSpace(string(data)), nil
}
