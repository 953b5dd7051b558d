package processor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// StabilizedSuffix replaces the input extension. The container is always
	// written as upper-case .MP4 whatever the input was.
	StabilizedSuffix = "-s.MP4"
	ComparisonSuffix = "-c.MP4"

	intermediateExt = ".trf"
)

var ErrInvalidInputPath = errors.New("invalid input path")

// DeriveOutputPath maps an input video to its stabilized output path:
// outputDir + "/<base name without extension>" + "-s.MP4". The input must
// contain a directory separator and its base name must have an extension.
func DeriveOutputPath(inputPath, outputDir string) (string, error) {
	sep := strings.LastIndexAny(inputPath, "/"+string(filepath.Separator))
	if sep < 0 {
		return "", fmt.Errorf("%w: %q has no directory component", ErrInvalidInputPath, inputPath)
	}
	dot := strings.LastIndexByte(inputPath, '.')
	if dot <= sep+1 {
		return "", fmt.Errorf("%w: %q has no file extension", ErrInvalidInputPath, inputPath)
	}
	return outputDir + inputPath[sep:dot] + StabilizedSuffix, nil
}

// ComparisonPath returns the side by side output path that pairs with a
// stabilized path from DeriveOutputPath: the "-s" marker becomes "-c".
func ComparisonPath(stabilizedPath string) string {
	if base, ok := strings.CutSuffix(stabilizedPath, StabilizedSuffix); ok {
		return base + ComparisonSuffix
	}
	return strings.Replace(stabilizedPath, "-s", "-c", 1)
}

// IntermediatePath names the transform data file for one input inside the
// run's scratch directory. The name is a hash of the input path, so
// distinct inputs never share a file.
func IntermediatePath(scratchDir, inputPath string) string {
	return filepath.Join(scratchDir, fmt.Sprintf("%016x%s", xxhash.Sum64String(inputPath), intermediateExt))
}

// OutputPaths are derived per input and never cached.
type OutputPaths struct {
	Stabilized string
	Comparison string // empty unless comparison output is enabled
}

func deriveOutputPaths(inputPath, outputDir string, comparison bool) (OutputPaths, error) {
	stabilized, err := DeriveOutputPath(inputPath, outputDir)
	if err != nil {
		return OutputPaths{}, err
	}
	paths := OutputPaths{Stabilized: stabilized}
	if comparison {
		paths.Comparison = ComparisonPath(stabilized)
	}
	return paths, nil
}
