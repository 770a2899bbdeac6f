package openai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// DataURL encodes raw image bytes as an inline image_url. The MIME type is
// sniffed when mime is empty.
func DataURL(mime string, data []byte) string {
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
