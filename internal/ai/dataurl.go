package ai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const audioDataURLPrefix = "data:audio/mpeg;base64,"

// AudioDataURL упаковывает mp3 в data URL, который браузер проигрывает напрямую.
func AudioDataURL(audio []byte) string {
	return audioDataURLPrefix + base64.StdEncoding.EncodeToString(audio)
}

// decodeDataURL извлекает байты из base64 data URL (data:image/png;base64,....).
func decodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data url is not base64 encoded")
	}
	return base64.StdEncoding.DecodeString(payload)
}
