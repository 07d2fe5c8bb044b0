package libspec

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

var errMissingName = errors.New("libspec has no library name")

// Decode reads a libdoc JSON document.
func Decode(r io.Reader) (*LibraryDoc, error) {
	var doc LibraryDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode libspec: %w", err)
	}
	if doc.Name == "" {
		return nil, errMissingName
	}
	return &doc, nil
}

// Load reads the libspec file at path.
func Load(path string) (*LibraryDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open libspec: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// header holds the part of a libspec needed to index it.
type header struct {
	Name string `json:"name"`
}

func readHeader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("failed to decode libspec: %w", err)
	}
	if h.Name == "" {
		return "", errMissingName
	}
	return h.Name, nil
}
