// Package barcodes provides barcode generation for PDF documents.
package barcodes

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Common errors
var (
	ErrInvalidData         = errors.New("invalid barcode data")
	ErrInvalidLength       = errors.New("invalid data length")
	ErrInvalidCharacter    = errors.New("invalid character in data")
	ErrIncorrectCheckDigit = errors.New("incorrect check digit")
)

// BarcodeType represents the type of barcode.
type BarcodeType int

const (
	TypeEAN13 BarcodeType = iota
	TypeUPCA
	TypeCode128
	TypeCode39
)

// String returns the string representation of barcode type.
func (t BarcodeType) String() string {
	switch t {
	case TypeEAN13:
		return "EAN-13"
	case TypeUPCA:
		return "UPC-A"
	case TypeCode128:
		return "Code128"
	case TypeCode39:
		return "Code39"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Barcode represents an encoded barcode.
type Barcode struct {
	Type BarcodeType
	// Data is the human readable text printed with the bars.
	Data     string
	Encoded  []bool // true = bar, false = space
	Checksum int
}

// Width returns the width of the barcode in modules.
func (b *Barcode) Width() int {
	return len(b.Encoded)
}

// Pattern returns the barcode pattern as a string (1=bar, 0=space).
func (b *Barcode) Pattern() string {
	var sb strings.Builder
	for _, bar := range b.Encoded {
		if bar {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func patternToBools(pattern string) []bool {
	result := make([]bool, len(pattern))
	for i, c := range pattern {
		result[i] = c == '1'
	}
	return result
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EAN/UPC encoding
var (
	eanLPatterns = []string{
		"0001101", "0011001", "0010011", "0111101", "0100011",
		"0110001", "0101111", "0111011", "0110111", "0001011",
	}
	eanGPatterns = []string{
		"0100111", "0110011", "0011011", "0100001", "0011101",
		"0111001", "0000101", "0010001", "0001001", "0010111",
	}
	eanRPatterns = []string{
		"1110010", "1100110", "1101100", "1000010", "1011100",
		"1001110", "1010000", "1000100", "1001000", "1110100",
	}
	ean13Parity = []string{
		"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
		"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
	}
)

// EAN13CheckDigit computes the check digit of the first 12 digits of
// code: digits at odd positions weigh 3, the others 1.
func EAN13CheckDigit(code string) (int, error) {
	if len(code) < 12 {
		return 0, ErrInvalidLength
	}
	if !isDigits(code[:12]) {
		return 0, ErrInvalidCharacter
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(code[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

// EncodeEAN13 encodes an EAN-13 barcode. Shorter codes are left padded
// with zeros; a 12 digit code gets its check digit appended and a 13 digit
// code has its check digit verified.
func EncodeEAN13(code string) (*Barcode, error) {
	return encodeEAN(code, 13, TypeEAN13)
}

// EncodeUPCA encodes a UPC-A barcode as an EAN-13 with a leading zero.
func EncodeUPCA(code string) (*Barcode, error) {
	return encodeEAN(code, 12, TypeUPCA)
}

func encodeEAN(code string, length int, typ BarcodeType) (*Barcode, error) {
	if !isDigits(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, code)
	}
	if len(code) < length-1 {
		code = strings.Repeat("0", length-1-len(code)) + code
	}
	if length == 12 {
		code = "0" + code
	}

	check, err := EAN13CheckDigit(code)
	if err != nil {
		return nil, err
	}
	switch len(code) {
	case 12:
		code += string(rune('0' + check))
	case 13:
		if int(code[12]-'0') != check {
			return nil, fmt.Errorf("%w: %s", ErrIncorrectCheckDigit, code)
		}
	default:
		return nil, fmt.Errorf("%w: %d digits", ErrInvalidLength, len(code))
	}

	var sb strings.Builder
	sb.WriteString("101")
	parity := ean13Parity[code[0]-'0']
	for i := 1; i <= 6; i++ {
		d := code[i] - '0'
		if parity[i-1] == 'L' {
			sb.WriteString(eanLPatterns[d])
		} else {
			sb.WriteString(eanGPatterns[d])
		}
	}
	sb.WriteString("01010")
	for i := 7; i <= 12; i++ {
		sb.WriteString(eanRPatterns[code[i]-'0'])
	}
	sb.WriteString("101")

	return &Barcode{
		Type:     typ,
		Data:     code,
		Encoded:  patternToBools(sb.String()),
		Checksum: check,
	}, nil
}

// Code128 encoding tables
var code128Patterns = []string{
	"11011001100", "11001101100", "11001100110", "10010011000", "10010001100", // 0-4
	"10001001100", "10011001000", "10011000100", "10001100100", "11001001000", // 5-9
	"11001000100", "11000100100", "10110011100", "10011011100", "10011001110", // 10-14
	"10111001100", "10011101100", "10011100110", "11001110010", "11001011100", // 15-19
	"11001001110", "11011100100", "11001110100", "11101101110", "11101001100", // 20-24
	"11100101100", "11100100110", "11101100100", "11100110100", "11100110010", // 25-29
	"11011011000", "11011000110", "11000110110", "10100011000", "10001011000", // 30-34
	"10001000110", "10110001000", "10001101000", "10001100010", "11010001000", // 35-39
	"11000101000", "11000100010", "10110111000", "10110001110", "10001101110", // 40-44
	"10111011000", "10111000110", "10001110110", "11101110110", "11010001110", // 45-49
	"11000101110", "11011101000", "11011100010", "11011101110", "11101011000", // 50-54
	"11101000110", "11100010110", "11101101000", "11101100010", "11100011010", // 55-59
	"11101111010", "11001000010", "11110001010", "10100110000", "10100001100", // 60-64
	"10010110000", "10010000110", "10000101100", "10000100110", "10110010000", // 65-69
	"10110000100", "10011010000", "10011000010", "10000110100", "10000110010", // 70-74
	"11000010010", "11001010000", "11110111010", "11000010100", "10001111010", // 75-79
	"10100111100", "10010111100", "10010011110", "10111100100", "10011110100", // 80-84
	"10011110010", "11110100100", "11110010100", "11110010010", "11011011110", // 85-89
	"11011110110", "11110110110", "10101111000", "10100011110", "10001011110", // 90-94
	"10111101000", "10111100010", "11110101000", "11110100010", "10111011110", // 95-99
	"10111101110", "11101011110", "11110101110", "11010000100", "11010010000", // 100-104
	"11010011100", "1100011101011", // 105-106 (STOP)
}

const (
	code128Stop = 106
	code128FNC1 = 102
)

// FNC1 is the byte that encodes the Code 128 FNC1 function character in
// EncodeCode128 input. Bytes 200 to 210 map to the control values 96 to
// 106 in sets A and B.
const FNC1 = "\xce"

var (
	code128Start = map[byte]int{'A': 103, 'B': 104, 'C': 105}
	code128Swap  = map[byte]int{'A': 101, 'B': 100, 'C': 99}
)

func isControl128(c byte) bool { return c >= 200 && c <= 210 }

func inSetA(c byte) bool { return c < 96 || isControl128(c) }

func inSetB(c byte) bool { return (c >= 32 && c < 128) || isControl128(c) }

func inSetC(c byte) bool { return (c >= '0' && c <= '9') || c == FNC1[0] }

func valueA(c byte) int {
	switch {
	case c < 32:
		return int(c) + 64
	case c < 96:
		return int(c) - 32
	}
	return int(c) - 104
}

func valueB(c byte) int {
	if isControl128(c) {
		return int(c) - 104
	}
	return int(c) - 32
}

// run counts the leading bytes of s accepted by in.
func run(s string, in func(byte) bool) int {
	n := 0
	for n < len(s) && in(s[n]) {
		n++
	}
	return n
}

// setCPrefix counts the leading bytes of s encodable in set C: FNC1 alone
// or pairs of digits.
func setCPrefix(s string) int {
	n := 0
	for n < len(s) {
		switch {
		case s[n] == FNC1[0]:
			n++
		case n+1 < len(s) && isDigits(s[n:n+2]):
			n += 2
		default:
			return n
		}
	}
	return n
}

// useSetC reports whether s starts with a run worth switching to set C:
// at least four set C bytes of which a prefix is encodable.
func useSetC(s string) bool {
	return run(s, inSetC) >= 4 && setCPrefix(s) >= 2
}

// EncodeCode128 encodes data as Code 128, switching between sets A, B and
// C so that runs of four or more digits use the compact set C.
func EncodeCode128(data string) (*Barcode, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}
	for i := 0; i < len(data); i++ {
		if c := data[i]; !inSetA(c) && !inSetB(c) && !inSetC(c) {
			return nil, fmt.Errorf("%w: byte %d at %d", ErrInvalidCharacter, c, i)
		}
	}

	var values []int
	selectSet := func(set byte) {
		if len(values) == 0 {
			values = append(values, code128Start[set])
		} else {
			values = append(values, code128Swap[set])
		}
	}

	for pos := 0; pos < len(data); {
		rest := data[pos:]
		if useSetC(rest) {
			selectSet('C')
			made := setCPrefix(rest)
			for i := 0; i < made; {
				if rest[i] == FNC1[0] {
					values = append(values, code128FNC1)
					i++
					continue
				}
				values = append(values, int(rest[i]-'0')*10+int(rest[i+1]-'0'))
				i += 2
			}
			pos += made
			continue
		}

		// Stop before the next run that qualifies for set C.
		limit := len(rest)
		for q := 1; q < len(rest); q++ {
			if useSetC(rest[q:]) {
				limit = q
				break
			}
		}
		madeA := min(run(rest, inSetA), limit)
		madeB := min(run(rest, inSetB), limit)
		if madeA < madeB {
			selectSet('B')
			for i := 0; i < madeB; i++ {
				values = append(values, valueB(rest[i]))
			}
			pos += madeB
		} else {
			selectSet('A')
			for i := 0; i < madeA; i++ {
				values = append(values, valueA(rest[i]))
			}
			pos += madeA
		}
	}

	check := values[0]
	for i := 1; i < len(values); i++ {
		check += values[i] * i
	}
	check %= 103
	values = append(values, check, code128Stop)

	var encoded []bool
	for _, v := range values {
		encoded = append(encoded, patternToBools(code128Patterns[v])...)
	}
	// Trailing quiet module of the end bar.
	encoded = append(encoded, false)

	return &Barcode{
		Type:     TypeCode128,
		Data:     data,
		Encoded:  encoded,
		Checksum: check,
	}, nil
}

// Code39 encoding
var (
	code39Chars    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%"
	code39Patterns = map[byte]string{
		'0': "101001101101", '1': "110100101011", '2': "101100101011", '3': "110110010101",
		'4': "101001101011", '5': "110100110101", '6': "101100110101", '7': "101001011011",
		'8': "110100101101", '9': "101100101101", 'A': "110101001011", 'B': "101101001011",
		'C': "110110100101", 'D': "101011001011", 'E': "110101100101", 'F': "101101100101",
		'G': "101010011011", 'H': "110101001101", 'I': "101101001101", 'J': "101011001101",
		'K': "110101010011", 'L': "101101010011", 'M': "110110101001", 'N': "101011010011",
		'O': "110101101001", 'P': "101101101001", 'Q': "101010110011", 'R': "110101011001",
		'S': "101101011001", 'T': "101011011001", 'U': "110010101011", 'V': "100110101011",
		'W': "110011010101", 'X': "100101101011", 'Y': "110010110101", 'Z': "100110110101",
		'-': "100101011011", '.': "110010101101", ' ': "100110101101", '$': "100100100101",
		'/': "100100101001", '+': "100101001001", '%': "101001001001", '*': "100101101101",
	}
	// Wide variant with a 3:1 ratio between wide and narrow elements.
	code39WidePatterns = map[byte]string{
		'0': "101000111011101", '1': "111010001010111", '2': "101110001010111", '3': "111011100010101",
		'4': "101000111010111", '5': "111010001110101", '6': "101110001110101", '7': "101000101110111",
		'8': "111010001011101", '9': "101110001011101", 'A': "111010100010111", 'B': "101110100010111",
		'C': "111011101000101", 'D': "101011100010111", 'E': "111010111000101", 'F': "101110111000101",
		'G': "101010001110111", 'H': "111010100011101", 'I': "101110100011101", 'J': "101011100011101",
		'K': "111010101000111", 'L': "101110101000111", 'M': "111011101010001", 'N': "101011101000111",
		'O': "111010111010001", 'P': "101110111010001", 'Q': "101010111000111", 'R': "111010101110001",
		'S': "101110101110001", 'T': "101011101110001", 'U': "111000101010111", 'V': "100011101010111",
		'W': "111000111010101", 'X': "100010111010111", 'Y': "111000101110101", 'Z': "100011101110101",
		'-': "100010101110111", '.': "111000101011101", ' ': "100011101011101", '$': "100010001000101",
		'/': "100010001010001", '+': "100010100010001", '%': "101000100010001", '*': "100010111011101",
	}
	// Full ASCII mapping onto pairs of base characters.
	code39Extended = [128]string{
		"%U", "$A", "$B", "$C", "$D", "$E", "$F", "$G", "$H", "$I", "$J", "$K", "$L", "$M", "$N", "$O",
		"$P", "$Q", "$R", "$S", "$T", "$U", "$V", "$W", "$X", "$Y", "$Z", "%A", "%B", "%C", "%D", "%E",
		" ", "/A", "/B", "/C", "/D", "/E", "/F", "/G", "/H", "/I", "/J", "/K", "/L", "-", ".", "/O",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "/Z", "%F", "%G", "%H", "%I", "%J",
		"%V", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O",
		"P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z", "%K", "%L", "%M", "%N", "%O",
		"%W", "+A", "+B", "+C", "+D", "+E", "+F", "+G", "+H", "+I", "+J", "+K", "+L", "+M", "+N", "+O",
		"+P", "+Q", "+R", "+S", "+T", "+U", "+V", "+W", "+X", "+Y", "+Z", "%P", "%Q", "%R", "%S", "%T",
	}
)

// Code39Options controls Code 39 encoding.
type Code39Options struct {
	// Extended encodes full ASCII through character pairs.
	Extended bool
	// Checksum appends the modulo 43 check character.
	Checksum bool
	// Wide uses a 3:1 wide to narrow ratio instead of 2:1.
	Wide bool
	// Gap is the number of space modules between characters, at least 1.
	Gap int
}

// StripAccents removes combining marks, turning "é" into "e".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Code39CheckChar returns the modulo 43 check character of code, which
// must hold base Code 39 characters only.
func Code39CheckChar(code string) (byte, error) {
	sum := 0
	for i := 0; i < len(code); i++ {
		idx := strings.IndexByte(code39Chars, code[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCharacter, code[i])
		}
		sum += idx
	}
	return code39Chars[sum%43], nil
}

// EncodeCode39 encodes code as Code 39. Accents are stripped first; the
// result is the Data of the barcode.
func EncodeCode39(code string, opts Code39Options) (*Barcode, error) {
	text := StripAccents(code)

	var symbols string
	if opts.Extended {
		var sb strings.Builder
		for _, r := range text {
			if r > 127 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, r)
			}
			sb.WriteString(code39Extended[r])
		}
		symbols = sb.String()
	} else {
		symbols = strings.ToUpper(text)
		for i := 0; i < len(symbols); i++ {
			if strings.IndexByte(code39Chars, symbols[i]) < 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, symbols)
			}
		}
	}

	checksum := -1
	if opts.Checksum {
		c, err := Code39CheckChar(symbols)
		if err != nil {
			return nil, err
		}
		checksum = strings.IndexByte(code39Chars, c)
		symbols += string(c)
	}
	symbols = "*" + symbols + "*"

	patterns := code39Patterns
	if opts.Wide {
		patterns = code39WidePatterns
	}
	gap := max(opts.Gap, 1)

	var encoded []bool
	for i := 0; i < len(symbols); i++ {
		encoded = append(encoded, patternToBools(patterns[symbols[i]])...)
		encoded = append(encoded, make([]bool, gap)...)
	}

	return &Barcode{
		Type:     TypeCode39,
		Data:     text,
		Encoded:  encoded,
		Checksum: checksum,
	}, nil
}
