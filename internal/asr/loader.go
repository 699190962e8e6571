package asr

import (
	"fmt"
	"sync"
)

// Loader lazily builds recognizers and caches them for the process lifetime.
// Model loading takes seconds and hundreds of megabytes, so recognizers are
// shared across jobs rather than rebuilt per transcription.
type Loader struct {
	// ModelsDir is the root under which tier model directories live.
	ModelsDir string
	// NumThreads for ONNX inference.
	NumThreads int

	mu    sync.Mutex
	cache map[string]*Recognizer
}

// NewLoader creates a Loader rooted at modelsDir.
func NewLoader(modelsDir string) *Loader {
	return &Loader{
		ModelsDir:  modelsDir,
		NumThreads: 4,
		cache:      make(map[string]*Recognizer),
	}
}

// Get returns the recognizer for a tier and optional language hint, loading
// it on first use.
func (l *Loader) Get(tier, language string) (*Recognizer, error) {
	if !IsValidTier(tier) {
		return nil, fmt.Errorf("%w: unknown tier %q (must be one of %s)", ErrModelLoad, tier, TierList())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := tier + "/" + language
	if r, ok := l.cache[key]; ok {
		return r, nil
	}

	modelDir, err := resolveModelDir(l.ModelsDir, tier, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	r, err := newRecognizer(modelDir, tier, language, l.NumThreads)
	if err != nil {
		return nil, err
	}
	l.cache[key] = r
	return r, nil
}

// Transcribe loads the tier's recognizer (cached after first use) and
// decodes one WAV file. This is the narrow surface the pipeline consumes.
func (l *Loader) Transcribe(wavPath, tier, language string) (string, error) {
	r, err := l.Get(tier, language)
	if err != nil {
		return "", err
	}
	text, _, err := r.TranscribeFile(wavPath)
	return text, err
}

// Close releases every cached recognizer.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, r := range l.cache {
		r.Close()
		delete(l.cache, key)
	}
}
