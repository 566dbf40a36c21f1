package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"housingreview/internal/port"
)

// cacheKey digests the prompt and every attachment, so any change in page
// content, order or requested types yields a new key.
func cacheKey(prompt string, atts []port.Attachment) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	for _, a := range atts {
		h.Write([]byte{0})
		h.Write([]byte(a.ContentType))
		h.Write([]byte(strconv.Itoa(len(a.Content))))
		h.Write(a.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
