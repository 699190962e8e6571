package asr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModelTiers lists the supported Whisper model tiers, fastest first. Each
// tier trades latency for accuracy.
var ModelTiers = []string{"tiny", "base", "small", "medium", "large"}

// DefaultTier balances speed and quality for lecture audio.
const DefaultTier = "base"

// minutesPerAudioHour is the expected processing time per hour of audio on
// CPU, used for progress and ETA estimates.
var minutesPerAudioHour = map[string]float64{
	"tiny":   12.5,
	"base":   25,
	"small":  52.5,
	"medium": 150,
	"large":  300,
}

// IsValidTier reports whether tier names a supported model.
func IsValidTier(tier string) bool {
	_, ok := minutesPerAudioHour[tier]
	return ok
}

// TierList returns the tiers joined for error messages and usage text.
func TierList() string {
	return strings.Join(ModelTiers, "|")
}

// resolveModelDir locates the sherpa-onnx Whisper model directory for a tier
// under the models root. English-only variants are preferred when the
// language hint allows it; they are smaller and faster.
func resolveModelDir(root, tier, language string) (string, error) {
	var candidates []string
	if language == "" || strings.EqualFold(language, "en") {
		candidates = append(candidates, filepath.Join(root, "sherpa-onnx-whisper-"+tier+".en"))
	}
	candidates = append(candidates,
		filepath.Join(root, "sherpa-onnx-whisper-"+tier),
		filepath.Join(root, tier),
	)

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no model directory for tier %q under %s (looked for %s)",
		tier, root, strings.Join(candidates, ", "))
}

// findModelFile searches a model directory for the first file matching one
// of the given name suffixes, in preference order. Model archives name files
// like "tiny.en-encoder.int8.onnx", so exact names can't be relied on.
func findModelFile(dir string, suffixes []string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, suffix := range suffixes {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.HasSuffix(entry.Name(), suffix) {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return ""
}
