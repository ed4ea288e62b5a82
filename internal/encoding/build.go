package encoding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/matcher"
	"github.com/kozaktomas/face-attendance/internal/names"
)

// FaceDetector extracts face embeddings from image bytes.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]extractor.Face, error)
}

// BuildOptions configures a dataset build.
type BuildOptions struct {
	Name        string
	Description string
	Progress    func(filename string) // optional, called before each image
}

// Builder turns a directory of labeled images into a dataset.
type Builder struct {
	detector FaceDetector
}

// NewBuilder creates a dataset builder using the given face detector.
func NewBuilder(detector FaceDetector) *Builder {
	return &Builder{detector: detector}
}

// Build scans sourceDir for images, extracts one dominant face embedding
// per image, and averages all embeddings collected per label into one
// representative vector. One averaged vector per person keeps matching
// O(1) per gallery entry at the cost of some recall.
//
// Per-image failures (unreadable file, extractor error, no detectable
// face) are collected in the report and never abort the build.
func (b *Builder) Build(ctx context.Context, sourceDir string, opts BuildOptions) (Dataset, BuildReport, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return Dataset{}, BuildReport{}, fmt.Errorf("failed to read source directory: %w", err)
	}

	var report BuildReport
	perLabel := make(map[string][][]float64)

	// Sorted enumeration keeps reports stable; averaging itself is
	// order-independent.
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, filename := range files {
		if err := ctx.Err(); err != nil {
			return Dataset{}, report, err
		}

		if opts.Progress != nil {
			opts.Progress(filename)
		}

		data, err := os.ReadFile(filepath.Join(sourceDir, filename))
		if err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", filename, err))
			continue
		}

		faces, err := b.detector.DetectFaces(ctx, data)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", filename, err))
			continue
		}

		face := extractor.DominantFace(faces)
		if face == nil {
			report.Skipped++
			continue
		}

		label := names.ParseLabel(filename)
		perLabel[label] = append(perLabel[label], face.Embedding)
		report.Processed++
	}

	gallery := make(matcher.Gallery, 0, len(perLabel))
	for label, vectors := range perLabel {
		gallery = append(gallery, matcher.Entry{Label: label, Vector: meanVector(vectors)})
	}
	sort.Slice(gallery, func(i, j int) bool { return gallery[i].Label < gallery[j].Label })

	ds := Dataset{
		Info: Info{
			Name:            opts.Name,
			Description:     opts.Description,
			CreatedAt:       now(),
			StudentCount:    len(gallery),
			ImagesProcessed: report.Processed,
			SourceDirectory: sourceDir,
		},
		Gallery: gallery,
	}
	return ds, report, nil
}

// meanVector computes the element-wise mean of the given vectors.
// Vectors whose dimension disagrees with the first are ignored.
func meanVector(vectors [][]float64) []float64 {
	sum := make([]float64, len(vectors[0]))
	n := 0
	for _, v := range vectors {
		if len(v) != len(sum) {
			continue
		}
		floats.Add(sum, v)
		n++
	}
	floats.Scale(1/float64(n), sum)
	return sum
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
