package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GenerateBatchName builds a unique scratch directory name from a
// microsecond timestamp and a short random suffix.
func GenerateBatchName(now time.Time) (string, error) {
	alphabet := "abcdefghijklmnopqrstuvwxyz0123456789"
	id, err := gonanoid.Generate(alphabet, 6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d-%s", now.Format("20060102-150405"), now.Nanosecond()/1000, id), nil
}
