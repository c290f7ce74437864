package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal converts a Document to indented JSON bytes.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a Document.
// The document is not validated; use FromSerializable for that.
func Unmarshal(data []byte) (Document, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes doc as indented JSON to w.
func Write(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON document from r.
// Malformed JSON yields an INVALID_FORMAT error.
func Read(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode dialogue")
	}
	return doc, nil
}

// WriteFile writes doc to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a JSON document from path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
