// pngcheck validates PNG files for correctness and spec compliance.
//
// Usage:
//
//	pngcheck [-q|--quiet] [-s|--strict] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet   Only output errors. Exit code indicates pass/fail.
//	-s, --strict  Enforce spec recommendations and check for questionable practices.
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (file not found, etc.)
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrjoshuak/go-png/compression"
	"github.com/mrjoshuak/go-png/png"
)

const version = "1.0.0"

// ValidationIssue represents a single validation problem found in a file.
type ValidationIssue struct {
	Severity string // "error" or "warning"
	Message  string
}

// ValidationResult contains all validation results for a file.
type ValidationResult struct {
	Filename string
	Issues   []ValidationIssue
	Checks   []string // List of checks performed
	Info     []string // Informational lines shown for valid files
}

// IsValid returns true if there are no errors (warnings are ok).
func (r *ValidationResult) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == "error" {
			return false
		}
	}
	return true
}

// HasErrors returns true if there are any error-level issues.
func (r *ValidationResult) HasErrors() bool {
	return !r.IsValid()
}

func (r *ValidationResult) addError(msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: "error", Message: msg})
}

func (r *ValidationResult) addWarning(msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: "warning", Message: msg})
}

func main() {
	quiet := false
	strict := false
	files := []string{}

	// Parse command line arguments
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-s", "--strict":
			strict = true
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--version":
			fmt.Printf("pngcheck version %s\n", version)
			fmt.Println("Part of go-png - Pure Go PNG library")
			fmt.Println("https://github.com/mrjoshuak/go-png")
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				printUsage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input files specified")
		printUsage()
		os.Exit(2)
	}

	validCount := 0
	errorOccurred := false

	for _, filename := range files {
		result, err := validateFile(filename, strict)
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			}
			errorOccurred = true
			continue
		}

		if result.IsValid() {
			validCount++
		}

		if !quiet {
			printResult(result)
		} else if result.HasErrors() {
			for _, issue := range result.Issues {
				if issue.Severity == "error" {
					fmt.Fprintf(os.Stderr, "%s: %s\n", filename, issue.Message)
				}
			}
		}
	}

	if len(files) > 1 && !quiet {
		fmt.Printf("\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		os.Exit(2)
	}
	if validCount < len(files) {
		os.Exit(1)
	}
	os.Exit(0)
}

func printUsage() {
	fmt.Println(`Usage: pngcheck [options] <filename> [<filename> ...]

Validate PNG files for correctness and spec compliance.

Options:
  -q, --quiet    Only output errors. Exit code indicates pass/fail.
  -s, --strict   Enforce spec recommendations and check for questionable practices.
  -h, --help     Show this help message.
  --version      Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, permission denied, etc.)

Examples:
  pngcheck image.png                  Validate a single file
  pngcheck -q *.png                   Validate all PNG files silently
  pngcheck -s image.png               Validate with strict mode`)
}

func printResult(result *ValidationResult) {
	if result.IsValid() {
		fmt.Printf("%s: OK\n", result.Filename)
		for _, line := range result.Info {
			fmt.Printf("  %s\n", line)
		}
		for _, issue := range result.Issues {
			fmt.Printf("  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
		}
	} else {
		fmt.Printf("%s: INVALID\n", result.Filename)
		for _, issue := range result.Issues {
			fmt.Printf("  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
		}
		fmt.Printf("  Checks performed: %s\n", strings.Join(result.Checks, ", "))
	}
}

// validateFile validates a single PNG file and returns the results.
func validateFile(filename string, strict bool) (*ValidationResult, error) {
	result := &ValidationResult{
		Filename: filename,
		Issues:   []ValidationIssue{},
		Checks:   []string{},
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	fileSize := stat.Size()

	result.Checks = append(result.Checks, "file size")
	if fileSize < 8 {
		result.addError("file too small to be a valid PNG file")
		return result, nil
	}

	// Limit file size to prevent memory exhaustion (1GB max for validation)
	const maxFileSize = 1024 * 1024 * 1024
	if fileSize > maxFileSize {
		result.addError(fmt.Sprintf("file too large for validation (%d bytes, max %d)", fileSize, maxFileSize))
		return result, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	// 1. Signature
	result.Checks = append(result.Checks, "signature")
	if !bytes.Equal(data[:8], png.Signature[:]) {
		result.addError("bad PNG signature")
		return result, nil
	}

	// 2. Chunk framing walk: lengths, tags, CRCs, terminal IEND
	result.Checks = append(result.Checks, "chunk framing")
	inv := walkChunks(data[8:], result)

	// 3. Full decode: header legality, chunk order, filters, compression
	result.Checks = append(result.Checks, "image decode")
	dec := &png.Decoder{Partial: true}
	img, derr := dec.Decode(bytes.NewReader(data))
	if derr != nil {
		result.addError(fmt.Sprintf("%s: %v", errorKind(derr), derr))
	}

	if img != nil {
		h := img.Header
		interlace := "non-interlaced"
		if h.Interlaced {
			interlace = "Adam7 interlaced"
		}
		result.Info = append(result.Info, fmt.Sprintf("%dx%d, %d-bit %s, %s",
			h.Width, h.Height, h.BitDepth, h.ColorType, interlace))
		if fl, ok := compression.DetectFLevel(inv.firstIDAT); ok {
			result.Info = append(result.Info, fmt.Sprintf("zlib compression category %d", fl))
		}
	}

	if strict && derr == nil && img != nil {
		runStrictChecks(img, inv, result)
	}

	return result, nil
}

// chunkInventory summarizes the chunk walk.
type chunkInventory struct {
	tags      []string
	idatCount int
	idatBytes int
	firstIDAT []byte
	textBytes int
}

// walkChunks verifies the framing of every chunk independently of the
// decoder, so CRC failures are reported for chunks past the first bad
// one the decoder stops at.
func walkChunks(data []byte, result *ValidationResult) *chunkInventory {
	inv := &chunkInventory{}
	r := bytes.NewReader(data)

	sawIEND := false
	for {
		c, err := png.ReadChunk(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !sawIEND {
					result.addError("stream ends without IEND")
				}
				break
			}
			result.addError(fmt.Sprintf("framing: %v", err))
			break
		}
		if sawIEND {
			result.addError(fmt.Sprintf("chunk %q after IEND", c.Tag))
			break
		}

		inv.tags = append(inv.tags, c.Tag)
		switch c.Tag {
		case "IDAT":
			if inv.idatCount == 0 {
				inv.firstIDAT = c.Data
			}
			inv.idatCount++
			inv.idatBytes += len(c.Data)
		case "tEXt", "zTXt", "iTXt":
			inv.textBytes += len(c.Data)
		case "IEND":
			sawIEND = true
		}
	}
	return inv
}

// runStrictChecks reports spec recommendations and questionable
// practices that do not make a file invalid.
func runStrictChecks(img *png.Image, inv *chunkInventory, result *ValidationResult) {
	m := &img.Metadata

	if m.SRGBIntent == nil && m.ICCProfile == nil && m.Gamma == 0 {
		result.addWarning("no color space information (sRGB, iCCP, or gAMA)")
	}
	if m.SRGBIntent != nil && m.Gamma != 0 && m.Gamma != 45455 {
		result.addWarning(fmt.Sprintf("sRGB with inconsistent gamma %d (want 45455)", m.Gamma))
	}
	if img.Header.ColorType == png.RGBAlpha && m.Transparency != nil {
		result.addWarning("transparency chunk is redundant with an alpha channel")
	}
	if m.Resolution != nil && m.Resolution.Unit == png.UnitMeter &&
		m.Resolution.XPPU != m.Resolution.YPPU {
		result.addWarning("non-square pixels declared via resolution")
	}
	for _, e := range m.Text {
		if len(e.Text) > 1024 && !e.Compressed {
			result.addWarning(fmt.Sprintf("large uncompressed text entry %q (%d bytes)",
				e.Keyword, len(e.Text)))
		}
	}
	for _, c := range m.Unknown {
		if png.Private(c.Tag) {
			result.addWarning(fmt.Sprintf("private chunk %q", c.Tag))
		}
	}
	if inv.idatCount > 1 && inv.idatBytes/inv.idatCount < 4096 {
		result.addWarning(fmt.Sprintf("image data split into %d small chunks", inv.idatCount))
	}
}

// errorKind names the classification of a decode failure.
func errorKind(err error) string {
	switch {
	case errors.Is(err, png.ErrFraming):
		return "framing"
	case errors.Is(err, png.ErrFormat):
		return "format"
	case errors.Is(err, png.ErrDecompression):
		return "decompression"
	default:
		return "decode"
	}
}
