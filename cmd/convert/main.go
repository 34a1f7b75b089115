package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"fileconverter/config"
	"fileconverter/converter"
	"fileconverter/formats"
	"fileconverter/models"
	"fileconverter/queue"
	"fileconverter/validation"
)

func main() {
	targetFormat := flag.String("to", "", "target format id (e.g. png, pdf, mp3, yaml)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall conversion deadline")
	flag.Parse()

	if *targetFormat == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: convert -to <format> <file> [file...]")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	registry := formats.NewRegistry()

	dispatcher, err := converter.NewDispatcher(registry, logger, converter.Options{
		FFmpegPath:  cfg.FFmpegPath,
		TempDir:     cfg.TempDir,
		JPEGQuality: cfg.JPEGQuality,
	})
	if err != nil {
		logger.Fatal("Dispatcher configuration invalid", zap.Error(err))
	}

	store := queue.NewStore(dispatcher, logger, queue.Options{
		Workers:          cfg.Workers,
		ProgressInterval: cfg.ProgressInterval,
	})
	defer store.Close()

	files, err := readInputs(flag.Args())
	if err != nil {
		logger.Fatal("Failed to read inputs", zap.Error(err))
	}

	result := validation.Validate(files, validation.Constraints{
		AcceptedTypes: acceptedTypes(registry),
		MaxFileSize:   cfg.MaxDocumentSize,
		MaxSizeByCategory: map[formats.Category]int64{
			formats.CategoryDocument: cfg.MaxDocumentSize,
			formats.CategoryImage:    cfg.MaxImageSize,
			formats.CategoryAudio:    cfg.MaxAudioSize,
			formats.CategoryVideo:    cfg.MaxVideoSize,
		},
		MaxFileCount: cfg.MaxFileCount,
	})
	for _, rej := range result.Rejected {
		fmt.Fprintf(os.Stderr, "rejected: %s (%s)\n", rej.Filename, rej.Reason)
	}
	if len(result.Accepted) == 0 {
		os.Exit(1)
	}

	sources := make([]models.SourceFile, 0, len(result.Accepted))
	for _, acc := range result.Accepted {
		sources = append(sources, models.SourceFile{
			Name: acc.File.Name,
			Size: acc.File.Size,
			MIME: acc.File.MIME,
			Data: acc.File.Data,
		})
		acc.Preview.Release()
	}

	jobs, err := store.SubmitBatch(sources, *targetFormat)
	if err != nil {
		logger.Fatal("Failed to submit batch", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	exitCode := 0
	for _, job := range jobs {
		final, err := store.Wait(ctx, job.ID)
		if err != nil {
			logger.Error("Wait failed", zap.String("job_id", job.ID), zap.Error(err))
			exitCode = 1
			continue
		}
		if final.Status == models.StatusFailed {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", final.Source.Name, final.ErrorMessage)
			exitCode = 1
			continue
		}
		outPath := filepath.Base(final.ResultName)
		if err := os.WriteFile(outPath, final.Result, 0o644); err != nil {
			logger.Error("Failed to write output", zap.String("path", outPath), zap.Error(err))
			exitCode = 1
			continue
		}
		fmt.Printf("converted: %s -> %s (%s)\n", final.Source.Name, outPath, formats.FormatFileSize(int64(len(final.Result))))
	}
	os.Exit(exitCode)
}

func readInputs(paths []string) ([]validation.File, error) {
	files := make([]validation.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mime := ""
		if f, err := formats.FormatFromExtension(path); err == nil {
			mime = f.MIMEType
		}
		files = append(files, validation.File{
			Name: filepath.Base(path),
			Size: int64(len(data)),
			MIME: mime,
			Data: data,
		})
	}
	return files, nil
}

func acceptedTypes(registry *formats.Registry) string {
	var exts []string
	seen := make(map[string]bool)
	for _, category := range registry.Categories() {
		for _, rule := range registry.Rules(category) {
			if f, err := registry.Describe(rule.Source); err == nil && !seen[f.Extension] {
				seen[f.Extension] = true
				exts = append(exts, f.Extension)
			}
		}
	}
	return strings.Join(exts, ",")
}
