package recipe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InstructionStore provides per-recipe cooking instructions, keyed by the
// recipe name. A recipe without instructions is normal: Read returns an
// empty list and no error.
type InstructionStore interface {
	Read(name string) ([]string, error)
	Write(name string, lines []string) error
}

// InstructionDir stores instructions as one text file per recipe inside a
// directory, one instruction per line.
type InstructionDir struct {
	dir string
}

// NewInstructionDir creates the directory if needed and returns a store
// rooted there.
func NewInstructionDir(dir string) (*InstructionDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create instructions directory: %w", err)
	}
	return &InstructionDir{dir: dir}, nil
}

// Read returns the instruction lines for the named recipe. A missing file
// is not an error; it yields an empty list.
func (d *InstructionDir) Read(name string) ([]string, error) {
	f, err := os.Open(filepath.Join(d.dir, name+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open instructions file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read instructions file: %w", err)
	}
	return lines, nil
}

// Write replaces the instruction file for the named recipe. Writing no
// lines produces an empty file, so Read reports no instructions.
func (d *InstructionDir) Write(name string, lines []string) error {
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(filepath.Join(d.dir, name+".txt"), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write instructions file: %w", err)
	}
	return nil
}
