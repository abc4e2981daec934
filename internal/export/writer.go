package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"alkoteka/exporter/internal/domain"

	log "github.com/sirupsen/logrus"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// Sanitize turns a value into a safe filename component: trimmed, lowercased,
// every character that is not a word character or hyphen replaced with an
// underscore.
func Sanitize(value string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "_")
}

// Filename derives the deterministic output name: prefix, sanitized category,
// sanitized color and sugar values in given order, an "all" marker when every
// page was fetched, and the date at day granularity. Two runs on the same day
// with identical selections produce the same name.
func Filename(prefix, category string, colors, sugars []string, fetchAll bool, date time.Time) string {
	parts := []string{prefix, Sanitize(category)}
	for _, c := range colors {
		parts = append(parts, Sanitize(c))
	}
	for _, s := range sugars {
		parts = append(parts, Sanitize(s))
	}
	if fetchAll {
		parts = append(parts, "all")
	}
	parts = append(parts, date.Format("20060102"))

	return strings.Join(parts, "_") + ".ndjson"
}

// WriteRecords stores the product collection as one compact JSON object per
// line, overwriting the destination in full via write-then-rename. Missing
// parent directories are created.
func WriteRecords(products []domain.Product, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ndjson-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp output file: %w", err)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i := range products {
		if err := enc.Encode(&products[i]); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to encode product record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp output file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace output file %s: %w", path, err)
	}

	log.Infof("Saved %d products to %s", len(products), path)
	return nil
}
