package fetch

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// decodeBody converts a response body to UTF-8 using the Content-Type header and meta tags
func decodeBody(body []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return string(body), nil
	}

	utf8Body, err := encoding.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s body to UTF-8: %w", name, err)
	}
	return string(utf8Body), nil
}
