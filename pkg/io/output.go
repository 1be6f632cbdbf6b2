package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type mappingDocument struct {
	Platforms map[string]platformMapping `json:"platforms"`
}

type platformMapping struct {
	Mapping     map[string]*string `json:"mapping"`
	Fingerprint string             `json:"fingerprint,omitempty"`
}

type inspectionDocument struct {
	Platforms map[string]*PlatformReport `json:"platforms"`
}

// WriteMapping writes the mapping of every report to w.
func WriteMapping(w io.Writer, reports []*PlatformReport) error {
	doc := mappingDocument{Platforms: make(map[string]platformMapping, len(reports))}
	for _, r := range reports {
		doc.Platforms[r.Platform] = platformMapping{Mapping: r.Mapping, Fingerprint: r.Fingerprint}
	}
	return encode(w, doc)
}

// WriteInspection writes every report in full to w.
func WriteInspection(w io.Writer, reports []*PlatformReport) error {
	doc := inspectionDocument{Platforms: make(map[string]*PlatformReport, len(reports))}
	for _, r := range reports {
		doc.Platforms[r.Platform] = r
	}
	return encode(w, doc)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportFile creates path and writes to it with write. A path of "-" or ""
// writes to standard output.
func ExportFile(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
