// Package main is the knowledge base ingest tool. It splits documents into
// chunks, embeds them, and loads them into a named collection of the vector
// index used for context retrieval.
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

	"github.com/parley-ai/chat-platform/internal/config"
	"github.com/parley-ai/chat-platform/internal/retrieval"
	"github.com/parley-ai/chat-platform/pkg/logger"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

func main() {
	var (
		path       = flag.String("path", "", "file or directory to ingest")
		collection = flag.String("collection", "", "target collection name")
	)
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *path == "" || *collection == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -path <file-or-dir> -collection <name>")
		os.Exit(2)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Error("OPENAI_API_KEY is required for embedding")
		os.Exit(1)
	}

	index, err := retrieval.OpenIndex(cfg.RAGDBPath, cfg.EmbeddingDims)
	if err != nil {
		log.Error("failed to open retrieval index", zap.Error(err))
		os.Exit(1)
	}
	defer index.Close()

	embedder, err := retrieval.NewOpenAIEmbedder(retrieval.EmbedderOptions{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDims,
	})
	if err != nil {
		log.Error("failed to create embedder", zap.Error(err))
		os.Exit(1)
	}

	files, err := collectFiles(*path)
	if err != nil {
		log.Error("failed to collect input files", zap.Error(err))
		os.Exit(1)
	}
	if len(files) == 0 {
		log.Error("no text or markdown files found", zap.String("path", *path))
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()
	chunks := 0

	for _, file := range files {
		n, err := ingestFile(ctx, index, embedder, *collection, file)
		if err != nil {
			log.Error("failed to ingest file", zap.String("file", file), zap.Error(err))
			os.Exit(1)
		}
		log.Info("ingested file", zap.String("file", file), zap.Int("chunks", n))
		chunks += n
	}

	total, err := index.Count(ctx, *collection)
	if err != nil {
		log.Warn("failed to count collection", zap.Error(err))
	}

	log.Info("ingest complete",
		zap.String("collection", *collection),
		zap.Int("files", len(files)),
		zap.Int("chunks_added", chunks),
		zap.Int("collection_total", total),
		zap.Duration("duration", time.Since(start)),
	)
}

// collectFiles resolves a path to the list of text or markdown files under it.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt", ".md", ".markdown":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func ingestFile(ctx context.Context, index *retrieval.Index, embedder retrieval.Embedder, collection, file string) (int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", file, err)
	}

	chunks := retrieval.SplitText(string(data), chunkSize, chunkOverlap)
	for i, chunk := range chunks {
		embedding, err := embedder.Embed(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("failed to embed chunk %d of %s: %w", i, file, err)
		}

		metadata := map[string]string{
			"source": filepath.Base(file),
			"chunk":  fmt.Sprintf("%d", i),
		}
		if err := index.Add(ctx, collection, chunk, metadata, embedding); err != nil {
			return i, fmt.Errorf("failed to index chunk %d of %s: %w", i, file, err)
		}
	}

	return len(chunks), nil
}
