package ingest

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type EncodingResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	HasBOM     bool    `json:"has_bom"`
}

type encodingCandidate struct {
	name       string
	confidence float64
}

const (
	minSampleSize = 512
	maxSampleSize = 8192
)

func DetectEncoding(data []byte) EncodingResult {
	if len(data) == 0 {
		return EncodingResult{Encoding: "utf-8", Confidence: 1.0}
	}

	result := detectBOM(data)
	if result.Confidence == 1.0 {
		return result
	}

	return detectByStatisticalAnalysis(data)
}

func detectBOM(data []byte) EncodingResult {
	if len(data) >= 3 {
		if bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
			return EncodingResult{Encoding: "utf-8", Confidence: 1.0, HasBOM: true}
		}
	}

	if len(data) >= 2 {
		if bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
			return EncodingResult{Encoding: "utf-16le", Confidence: 1.0, HasBOM: true}
		}
		if bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
			return EncodingResult{Encoding: "utf-16be", Confidence: 1.0, HasBOM: true}
		}
	}

	return EncodingResult{Encoding: "", Confidence: 0}
}

// Agreements arrive as UTF-8, BOM-less UTF-16 exports, or one of the
// Western single-byte code pages. Anything else decodes as Windows-1252,
// which maps every byte.
func detectByStatisticalAnalysis(data []byte) EncodingResult {
	sample := data
	if len(sample) > maxSampleSize {
		sample = data[:maxSampleSize]
	}

	if c := scoreUTF16LE(sample); c > 0 {
		return EncodingResult{Encoding: "utf-16le", Confidence: c}
	}
	if c := scoreUTF16BE(sample); c > 0 {
		return EncodingResult{Encoding: "utf-16be", Confidence: c}
	}

	if len(sample) < minSampleSize && isASCII(sample) {
		return EncodingResult{Encoding: "ascii", Confidence: 1.0}
	}

	if isValidUTF8Sequence(sample) {
		return EncodingResult{Encoding: "utf-8", Confidence: 0.95}
	}

	candidates := []encodingCandidate{
		{name: "windows-1252", confidence: scoreWindows1252(sample)},
		{name: "iso-8859-15", confidence: scoreISO885915(sample)},
		{name: "iso-8859-1", confidence: scoreISO88591(sample)},
	}

	best := EncodingResult{Encoding: "windows-1252", Confidence: 0.3}
	for _, cand := range candidates {
		if cand.confidence > best.Confidence {
			best.Encoding = cand.name
			best.Confidence = cand.confidence
		}
	}

	return best
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b > 127 {
			return false
		}
	}
	return true
}

func isValidUTF8Sequence(data []byte) bool {
	hasNonASCII := false
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b < 0x80 {
			continue
		}

		hasNonASCII = true

		if b < 0xC2 || b > 0xF4 {
			return false
		}

		var size int
		if b < 0xE0 {
			size = 2
		} else if b < 0xF0 {
			size = 3
		} else {
			size = 4
		}

		// A sequence cut off by the sample boundary still counts.
		if i+size > len(data) {
			return true
		}

		for j := 1; j < size; j++ {
			if data[i+j]&0xC0 != 0x80 {
				return false
			}
		}

		i += size - 1
	}

	return hasNonASCII || utf8.Valid(data)
}

func hasC1Bytes(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return true
		}
	}
	return false
}

// Windows-1252 leaves five bytes of the C1 range unassigned.
func scoreWindows1252(data []byte) float64 {
	defined := 0
	for _, b := range data {
		switch {
		case b == 0x81 || b == 0x8D || b == 0x8F || b == 0x90 || b == 0x9D:
			return 0
		case b >= 0x80 && b <= 0x9F:
			defined++
		}
	}
	if defined > 0 {
		return 0.9
	}
	return 0.5
}

func scoreISO88591(data []byte) float64 {
	if hasC1Bytes(data) {
		return 0
	}
	return 0.6
}

// ISO-8859-15 differs from Latin-1 mainly by putting the euro sign at 0xA4.
// A 0xA4 directly before an amount is taken as a euro sign.
func scoreISO885915(data []byte) float64 {
	if hasC1Bytes(data) {
		return 0
	}
	for i, b := range data {
		if b != 0xA4 || i+1 >= len(data) {
			continue
		}
		next := data[i+1]
		if next == ' ' && i+2 < len(data) {
			next = data[i+2]
		}
		if next >= '0' && next <= '9' {
			return 0.8
		}
	}
	return 0
}

func scoreUTF16LE(data []byte) float64 {
	if len(data) < 2 || len(data)%2 != 0 {
		return 0
	}

	nullCount := 0
	for i := 1; i < len(data); i += 2 {
		if data[i] == 0 {
			nullCount++
		}
	}

	ratio := float64(nullCount) / float64(len(data)/2)
	if ratio > 0.75 {
		return 0.8
	}

	return 0
}

func scoreUTF16BE(data []byte) float64 {
	if len(data) < 2 || len(data)%2 != 0 {
		return 0
	}

	nullCount := 0
	for i := 0; i < len(data); i += 2 {
		if data[i] == 0 {
			nullCount++
		}
	}

	ratio := float64(nullCount) / float64(len(data)/2)
	if ratio > 0.75 {
		return 0.8
	}

	return 0
}

func NormalizeToUTF8(data []byte, detected EncodingResult) string {
	data = stripBOM(data, detected)

	switch detected.Encoding {
	case "ascii":
		return string(data)

	case "utf-8":
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))

	case "utf-16le":
		return decodeWithFallback(data, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())

	case "utf-16be":
		return decodeWithFallback(data, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder())

	case "windows-1252":
		return decodeWithFallback(data, charmap.Windows1252.NewDecoder())

	case "iso-8859-1":
		return decodeWithFallback(data, charmap.ISO8859_1.NewDecoder())

	case "iso-8859-15":
		return decodeWithFallback(data, charmap.ISO8859_15.NewDecoder())

	default:
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}
}

func stripBOM(data []byte, detected EncodingResult) []byte {
	if !detected.HasBOM {
		return data
	}

	switch detected.Encoding {
	case "utf-8":
		if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
			return data[3:]
		}

	case "utf-16le":
		if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
			return data[2:]
		}

	case "utf-16be":
		if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
			return data[2:]
		}
	}

	return data
}

func decodeWithFallback(data []byte, decoder *encoding.Decoder) string {
	if len(data) == 0 {
		return ""
	}

	reader := transform.NewReader(bytes.NewReader(data), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}

	return string(bytes.ToValidUTF8(result, []byte("\uFFFD")))
}
