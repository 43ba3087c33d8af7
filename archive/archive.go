package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"arena-go/model"
)

// timeLayout names archived models by acceptance time at second
// granularity. Lexicographic order of the directory listing is the version
// history; no separate index is kept.
const timeLayout = "2006-01-02_15-04-05"

// Archive persists accepted model versions, one file per acceptance.
type Archive struct {
	baseDir string
}

func New(baseDir string) *Archive {
	return &Archive{baseDir: baseDir}
}

// SaveAccepted writes the version's parameters under the base directory and
// returns the final path. Two acceptances within the same wall-clock second
// collide on the same name; the later write overwrites the earlier one.
func (a *Archive) SaveAccepted(v *model.Version) (string, error) {
	if err := os.MkdirAll(a.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	at := v.Created
	if at.IsZero() {
		at = time.Now()
	}
	path := filepath.Join(a.baseDir, at.UTC().Format(timeLayout)+".model")

	if err := os.WriteFile(path, v.Params, 0644); err != nil {
		return "", fmt.Errorf("failed to write model version %d: %w", v.Number, err)
	}

	log.Info().Msgf("archived model version %d at %s", v.Number, path)
	return path, nil
}
