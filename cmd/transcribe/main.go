package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"podscribe/internal/asr"
	"podscribe/internal/capture"
	"podscribe/internal/config"
	"podscribe/internal/fetch"
	"podscribe/internal/pipeline"
)

func main() {
	var (
		outputFile = flag.String("o", "", "Output transcript file (default: transcripts/transcript_<timestamp>.txt)")
		model      = flag.String("m", asr.DefaultTier, "Whisper model tier: "+asr.TierList())
		language   = flag.String("l", "", "Language hint (e.g. en); empty lets the model decide")
		keepAudio  = flag.Bool("keep-audio", false, "Keep the downloaded audio file after transcription")
		verbose    = flag.Bool("v", false, "Verbose output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] URL\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Transcribes a UCSD podcast lecture, a YouTube video, or any URL ffmpeg can read.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s https://podcast.ucsd.edu/watch/wi26/cogs108_b00/6\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -m small -o lecture6.txt https://podcast.ucsd.edu/watch/wi26/cogs108_b00/6\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -keep-audio https://www.youtube.com/watch?v=VIDEO_ID\n", os.Args[0])
	}

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one URL is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	pageURL := flag.Arg(0)

	if err := fetch.CheckFFmpeg(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nHint: install ffmpeg first (apt install ffmpeg / brew install ffmpeg)\n")
		os.Exit(1)
	}

	cfg := config.Load()
	models := asr.NewLoader(cfg.ModelsDir)
	if cfg.NumThreads > 0 {
		models.NumThreads = cfg.NumThreads
	}
	defer models.Close()

	capturer := capture.New()
	capturer.Timeout = cfg.CaptureTimeout
	fetcher := fetch.New()
	fetcher.Timeout = cfg.DownloadTimeout

	driver := pipeline.New(models)
	driver.Capturer = capturer
	driver.Fetcher = fetcher
	driver.TranscriptsDir = cfg.TranscriptsDir
	driver.AudioDir = cfg.AudioDir

	req := pipeline.Request{
		URL:        pageURL,
		Model:      *model,
		Language:   *language,
		OutputPath: *outputFile,
		KeepAudio:  *keepAudio,
		OnStage: func(stage string) {
			fmt.Fprintf(os.Stderr, "==> %s\n", stage)
		},
	}
	if *verbose {
		req.OnProgress = func(fraction, etaMinutes float64) {
			fmt.Fprintf(os.Stderr, "    transcribing: %.0f%% (about %.1f min remaining)\n", fraction*100, etaMinutes)
		}
	}

	result, err := driver.Run(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nTranscript saved to: %s\n", result.TranscriptPath)
	if result.AudioPath != "" {
		fmt.Fprintf(os.Stderr, "Audio saved to: %s\n", result.AudioPath)
	}

	preview := result.Transcript
	if len(preview) > 500 {
		cut := 500
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}
	fmt.Fprintf(os.Stderr, "\nPreview:\n%s\n", preview)
}
