// Package dataio reads and writes the files the command-line tools exchange:
// control point sets, fitted coefficients and plain-text matrices.
package dataio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"polywarp/internal/models"
	"polywarp/pkg/polywarp"
	"polywarp/pkg/raster"
)

// LoadControlPoints reads a YAML control point file.
func LoadControlPoints(path string) (*models.ControlPointFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading control points: %w", err)
	}
	var f models.ControlPointFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing control points %s: %w", path, err)
	}
	if len(f.Pairs) == 0 {
		return nil, fmt.Errorf("control point file %s has no pairs", path)
	}
	return &f, nil
}

// SaveControlPoints writes f as YAML.
func SaveControlPoints(path string, f *models.ControlPointFile) error {
	return writeYAML(path, f)
}

// Points splits the pairs into source and destination point sets.
func Points(f *models.ControlPointFile) (src, dst []polywarp.Point) {
	src = make([]polywarp.Point, len(f.Pairs))
	dst = make([]polywarp.Point, len(f.Pairs))
	for i, p := range f.Pairs {
		src[i] = polywarp.Point{X: p.Source[0], Y: p.Source[1]}
		dst[i] = polywarp.Point{X: p.Dest[0], Y: p.Dest[1]}
	}
	return src, dst
}

// LoadCoefficients reads a YAML coefficient file and checks its shape.
func LoadCoefficients(path string) (*polywarp.Coefficients, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading coefficients: %w", err)
	}
	var f models.CoefficientFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing coefficients %s: %w", path, err)
	}
	c, err := polywarp.NewCoefficients(f.Kx, f.Ky)
	if err != nil {
		return nil, fmt.Errorf("coefficients %s: %w", path, err)
	}
	if f.Degree != 0 && f.Degree != c.Degree {
		return nil, fmt.Errorf("coefficients %s declare degree %d but hold %d terms: %w",
			path, f.Degree, len(f.Kx), polywarp.ErrDimensionMismatch)
	}
	return c, nil
}

// SaveCoefficients writes f as YAML.
func SaveCoefficients(path string, f *models.CoefficientFile) error {
	return writeYAML(path, f)
}

func writeYAML(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

// ReadMatrix parses whitespace-separated rows of numbers. Blank lines and
// lines starting with '#' are skipped.
func ReadMatrix(r io.Reader) (*raster.Raster, error) {
	var rows [][]float64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return raster.FromRows(rows)
}

// WriteMatrix writes r as one line of space-separated values per row, using
// the shortest representation that parses back to the same value.
func WriteMatrix(w io.Writer, r *raster.Raster) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < r.Height; y++ {
		for x, v := range r.Row(y) {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// LoadMatrix reads a matrix file.
func LoadMatrix(path string) (*raster.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing matrix %s: %w", path, err)
	}
	return r, nil
}

// SaveMatrix writes a matrix file.
func SaveMatrix(path string, r *raster.Raster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMatrix(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
