package copyexamplegen

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Examples is the output artifact. URI is chosen by the caller; each split
// is written to <URI>/Split-<label>/ and SplitNames lists the labels as a
// JSON array once every split has been copied.
type Examples struct {
	URI        string `json:"uri"`
	SplitNames string `json:"split_names,omitempty"`
}

func formatSplitNames(labels []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(labels); err != nil {
		// A []string always encodes.
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
