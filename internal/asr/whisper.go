// Package asr transcribes lecture audio with Whisper models run in-process
// through sherpa-onnx. Models are selected by quality tier and loaded
// lazily, one recognizer per tier per process.
package asr

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// ErrModelLoad indicates the model files could not be found or initialized.
var ErrModelLoad = errors.New("failed to load speech model")

// ErrTranscription indicates decoding failed on otherwise readable audio.
var ErrTranscription = errors.New("transcription failed")

// Recognizer wraps one loaded Whisper model.
type Recognizer struct {
	recognizer *sherpa.OfflineRecognizer
	tier       string
	sampleRate int
}

// newRecognizer loads the Whisper model for a tier from modelDir.
func newRecognizer(modelDir, tier, language string, numThreads int) (*Recognizer, error) {
	encoderPath := findModelFile(modelDir, []string{"encoder.int8.onnx", "encoder.onnx"})
	decoderPath := findModelFile(modelDir, []string{"decoder.int8.onnx", "decoder.onnx"})
	tokensPath := findModelFile(modelDir, []string{"tokens.txt"})

	if encoderPath == "" {
		return nil, fmt.Errorf("%w: encoder model not found in %s", ErrModelLoad, modelDir)
	}
	if decoderPath == "" {
		return nil, fmt.Errorf("%w: decoder model not found in %s", ErrModelLoad, modelDir)
	}
	if tokensPath == "" {
		return nil, fmt.Errorf("%w: tokens file not found in %s", ErrModelLoad, modelDir)
	}

	const sampleRate = 16000
	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: sampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  encoderPath,
				Decoder:  decoderPath,
				Language: language,
				Task:     "transcribe",
			},
			Tokens:     tokensPath,
			NumThreads: numThreads,
			Debug:      0,
		},
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("%w: creating recognizer for tier %s", ErrModelLoad, tier)
	}

	return &Recognizer{
		recognizer: recognizer,
		tier:       tier,
		sampleRate: sampleRate,
	}, nil
}

// Tier returns the model tier this recognizer was loaded for.
func (r *Recognizer) Tier() string {
	return r.tier
}

// TranscribeFile decodes a 16kHz mono WAV file and returns the transcript
// text plus the wall-clock decode time.
func (r *Recognizer) TranscribeFile(wavPath string) (string, time.Duration, error) {
	start := time.Now()

	if _, err := os.Stat(wavPath); os.IsNotExist(err) {
		return "", 0, fmt.Errorf("%w: file not found: %s", ErrTranscription, wavPath)
	}

	wave := sherpa.ReadWave(wavPath)
	if wave == nil || len(wave.Samples) == 0 {
		return "", 0, fmt.Errorf("%w: could not read WAV samples from %s", ErrTranscription, wavPath)
	}

	stream := sherpa.NewOfflineStream(r.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(r.sampleRate, wave.Samples)
	r.recognizer.Decode(stream)

	result := stream.GetResult()
	if result == nil {
		return "", 0, fmt.Errorf("%w: decoder returned no result", ErrTranscription)
	}

	return strings.TrimSpace(result.Text), time.Since(start), nil
}

// Close releases the underlying model. Safe to call twice.
func (r *Recognizer) Close() {
	if r.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(r.recognizer)
		r.recognizer = nil
	}
}
