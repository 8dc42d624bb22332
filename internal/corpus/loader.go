// Package corpus loads labeled message collections from a directory tree of
// .eml files and mbox archives.
package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/emersion/go-mbox"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/parser"
	"github.com/felo/eml-vectorizer/internal/scanner"
)

// Message is one parsed message of the corpus
type Message struct {
	// Source is the file path relative to the corpus root, with a "#n"
	// suffix for the n-th message of an mbox archive.
	Source string
	// Label is the top-level directory the message was found under
	Label string
	Node  mimetree.Node
}

// LoadResult contains statistics about a load
type LoadResult struct {
	TotalFound  int
	Loaded      int
	Failed      int
	FailedFiles []string
}

// Loader reads every corpus file below a root directory
type Loader struct {
	scanner     *scanner.Scanner
	logger      *slog.Logger
	concurrency int // Number of concurrent workers
}

// NewLoader creates a new loader
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		scanner:     scanner.NewScanner(root),
		logger:      logger,
		concurrency: runtime.NumCPU() * 2, // 2x CPUs for I/O parallelism
	}
}

// WithConcurrency sets the number of concurrent workers
func (l *Loader) WithConcurrency(workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	l.concurrency = workers
	return l
}

// Load reads the whole corpus. Messages come back in scan order regardless
// of which worker parsed them; files that cannot be read are counted and
// skipped.
func (l *Loader) Load(ctx context.Context) ([]Message, *LoadResult, error) {
	return l.LoadWithProgress(ctx, nil)
}

type loadJob struct {
	index int
	file  scanner.File
}

type loadResult struct {
	index    int
	file     scanner.File
	messages []Message
	err      error
}

// LoadWithProgress loads the corpus and reports progress via a callback
func (l *Loader) LoadWithProgress(ctx context.Context, progress func(current, total int, path string)) ([]Message, *LoadResult, error) {
	files, err := l.scanner.Scan()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &LoadResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	l.logger.Debug("loading corpus",
		"root", l.scanner.GetRootPath(),
		"files", result.TotalFound,
		"workers", l.concurrency,
	)

	// Create channels for work distribution
	jobChan := make(chan loadJob, len(files))
	resultChan := make(chan loadResult, len(files))

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < l.concurrency; i++ {
		wg.Add(1)
		go l.loadWorker(ctx, &wg, jobChan, resultChan)
	}

	// Send files to workers
	for i, file := range files {
		jobChan <- loadJob{index: i, file: file}
	}
	close(jobChan)

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results
	perFile := make([][]Message, len(files))
	failed := make([]bool, len(files))
	processedCount := 0
	for res := range resultChan {
		processedCount++
		if progress != nil {
			progress(processedCount, result.TotalFound, res.file.Path)
		}

		if res.err != nil {
			failed[res.index] = true
			continue
		}
		perFile[res.index] = res.messages
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("corpus load cancelled: %w", err)
	}

	var messages []Message
	for i, msgs := range perFile {
		if failed[i] {
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, files[i].Path)
			continue
		}
		result.Loaded++
		messages = append(messages, msgs...)
	}

	l.logger.Info("corpus loaded",
		"files", result.TotalFound,
		"loaded", result.Loaded,
		"failed", result.Failed,
		"messages", len(messages),
	)

	return messages, result, nil
}

// loadWorker processes files from the job channel
func (l *Loader) loadWorker(ctx context.Context, wg *sync.WaitGroup, jobChan <-chan loadJob, resultChan chan<- loadResult) {
	defer wg.Done()

	for job := range jobChan {
		res := loadResult{index: job.index, file: job.file}
		if err := ctx.Err(); err != nil {
			res.err = err
		} else {
			res.messages, res.err = l.loadFile(job.file)
		}
		resultChan <- res
	}
}

// loadFile parses one corpus file into its messages
func (l *Loader) loadFile(file scanner.File) ([]Message, error) {
	path := l.scanner.Resolve(file)

	if file.Kind == scanner.KindEML {
		node, err := parser.ParseEMLFile(path)
		if err != nil {
			l.logger.Warn("failed to parse message", "path", file.Path, "error", err)
			return nil, err
		}
		return []Message{{Source: file.Path, Label: file.Label(), Node: node}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		l.logger.Warn("failed to open mbox", "path", file.Path, "error", err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadMbox(f, file.Path, file.Label(), l.logger)
}

// ReadMbox parses every message of an mbox archive. A message whose header
// cannot be read is skipped; an archive that cannot be split is an error.
func ReadMbox(r io.Reader, source, label string, logger *slog.Logger) ([]Message, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var messages []Message
	reader := mbox.NewReader(r)
	for i := 0; ; i++ {
		mr, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mbox message %d: %w", i, err)
		}

		node, err := parser.ParseEML(mr)
		if err != nil {
			logger.Warn("failed to parse mbox message, skipping",
				"source", source,
				"index", i,
				"error", err,
			)
			continue
		}

		messages = append(messages, Message{
			Source: fmt.Sprintf("%s#%d", source, i),
			Label:  label,
			Node:   node,
		})
	}

	return messages, nil
}

// Nodes returns the MIME trees of msgs in order
func Nodes(msgs []Message) []mimetree.Node {
	nodes := make([]mimetree.Node, len(msgs))
	for i, m := range msgs {
		nodes[i] = m.Node
	}
	return nodes
}

// Labels returns the labels of msgs in order
func Labels(msgs []Message) []string {
	labels := make([]string, len(msgs))
	for i, m := range msgs {
		labels[i] = m.Label
	}
	return labels
}
