package upload

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateName returns an 8 character random token followed by ".ext".
func GenerateName(ext string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if ext == "" {
		return token
	}
	return token + "." + strings.TrimPrefix(ext, ".")
}
