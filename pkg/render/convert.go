package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Export formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// Formats lists every export format in display order.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPDF, FormatPNG}

// ValidateFormat returns an UNSUPPORTED error for unknown formats.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeUnsupported, "unknown export format %q (want one of %v)", format, Formats)
	}
	return nil
}

// Convert turns SVG bytes into format. SVG passes through unchanged;
// PDF and PNG go through rsvg-convert.
func Convert(svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		return ToPDF(svg)
	case FormatPNG:
		return ToPNG(svg, scale)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "cannot convert SVG to %q", format)
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, FormatPDF)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rsvgConvert(svg, FormatPNG, "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}
