package doctree

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// ErrEmptyTree is returned when a tree file holds no root node.
var ErrEmptyTree = errors.New("document tree is empty")

// Decode reads one parser-exported tree from r.
func Decode(r io.Reader) (*Block, error) {
	var root *Block
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode document tree: %w", err)
	}
	if root == nil {
		return nil, ErrEmptyTree
	}

	return root, nil
}

// LoadFile reads a parser-exported tree from a JSON file.
func LoadFile(path string) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return root, nil
}
