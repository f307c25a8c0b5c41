package main

import (
	"strconv"
)

const (
	uriSizeMax     = 1024
	urlVarNameMax  = 128
	urlVarValueMax = 1024
)

// ParseRequest reads one request off t and returns either a fully formed
// Request (err == nil) or a classified ParseError. It is a byte-at-a-time
// state machine driven entirely by Transport.Peek/Next and never blocks
// except inside those two primitives.
func ParseRequest(t *Transport) (*Request, error) {
	req := &Request{VersionMajor: 0, VersionMinor: 9, Type: RequestSimple}

	method, perr := parseMethod(t)
	if perr != nil {
		return nil, perr
	}
	req.Method = method

	ch, err := nextIO(t)
	if err != nil {
		return nil, err
	}
	if !isSpaceByte(ch) {
		return nil, ParseBad
	}
	ch, err = skipHWS(t)
	if err != nil {
		return nil, err
	}
	if ch == '\n' {
		return nil, ParseBad
	}

	uri, perr := parseURI(t)
	if perr != nil {
		return nil, perr
	}
	req.URI = uri

	b, err := peekIO(t)
	if err != nil {
		return nil, err
	}
	if b == '?' {
		query, perr := parseQuery(t)
		if perr != nil {
			return nil, perr
		}
		req.Query = query
		b, err = peekIO(t)
		if err != nil {
			return nil, err
		}
	}
	if b == '#' {
		if _, err := nextIO(t); err != nil {
			return nil, err
		}
		frag, perr := parseFragment(t)
		if perr != nil {
			return nil, perr
		}
		req.Fragment = frag
		b, err = peekIO(t)
		if err != nil {
			return nil, err
		}
	}

	req.Type = RequestFull
	b, err = skipHWS(t)
	if err != nil {
		return nil, err
	}
	if b == '\n' {
		req.Type = RequestSimple
	}

	if req.Type == RequestSimple {
		if _, err := nextIO(t); err != nil { // consume the '\n'
			return nil, err
		}
		if req.Method != MethodGet {
			return nil, ParseBad
		}
		req.VersionMajor, req.VersionMinor = 0, 9
		return req, nil
	}

	major, minor, perr := parseVersion(t, b)
	if perr != nil {
		return nil, perr
	}
	req.VersionMajor, req.VersionMinor = major, minor

	if perr := expectCRLF(t); perr != nil {
		return nil, perr
	}

	headers, perr := parseHeaders(t)
	if perr != nil {
		return nil, perr
	}
	req.Headers = headers

	return req, nil
}

// --- transport helpers that translate io.EOF/other into ParseError ---

func nextIO(t *Transport) (byte, error) {
	b, err := t.Next()
	if err != nil {
		return 0, ioError(err)
	}
	return b, nil
}

func peekIO(t *Transport) (byte, error) {
	b, err := t.Peek()
	if err != nil {
		return 0, ioError(err)
	}
	return b, nil
}

// ioError classifies any transport read failure, including a clean
// peer-closed EOF, as ParseIOError: the connection is dropped without a
// response.
func ioError(err error) error {
	return ParseIOError
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t'
}

// skipHWS consumes horizontal whitespace (space/tab) and returns the first
// non-whitespace byte it peeks, without consuming it.
func skipHWS(t *Transport) (byte, error) {
	for {
		b, err := peekIO(t)
		if err != nil {
			return 0, err
		}
		if !isSpaceByte(b) {
			return b, nil
		}
		if _, err := nextIO(t); err != nil {
			return 0, err
		}
	}
}

// --- method ---

// parseMethod dispatches on the first byte of the method token, then
// exactly matches the remaining letters. POST and PUT share a first byte,
// so 'P' needs a second byte before the token is known.
func parseMethod(t *Transport) (Method, error) {
	first, err := nextIO(t)
	if err != nil {
		return 0, err
	}
	var name string
	var method Method
	matched := 1
	switch first {
	case 'C':
		name, method = "CONNECT", MethodConnect
	case 'D':
		name, method = "DELETE", MethodDelete
	case 'G':
		name, method = "GET", MethodGet
	case 'H':
		name, method = "HEAD", MethodHead
	case 'O':
		name, method = "OPTIONS", MethodOptions
	case 'P':
		second, err := nextIO(t)
		if err != nil {
			return 0, err
		}
		switch second {
		case 'O':
			name, method = "POST", MethodPost
		case 'U':
			name, method = "PUT", MethodPut
		default:
			return 0, ParseBad
		}
		matched = 2
	case 'T':
		name, method = "TRACE", MethodTrace
	default:
		return 0, ParseBad
	}
	for i := matched; i < len(name); i++ {
		b, err := nextIO(t)
		if err != nil {
			return 0, err
		}
		if b != name[i] {
			return 0, ParseBad
		}
	}
	return method, nil
}

// --- URI ---

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func nibble(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// decodePercent reads the two hex digits after a '%' and returns the
// decoded byte, (nibble(h1)<<4)|nibble(h2).
func decodePercent(t *Transport) (byte, error) {
	h1, err := nextIO(t)
	if err != nil {
		return 0, err
	}
	if !isHexDigit(h1) {
		return 0, ParseBad
	}
	h2, err := nextIO(t)
	if err != nil {
		return 0, err
	}
	if !isHexDigit(h2) {
		return 0, ParseBad
	}
	return (nibble(h1) << 4) | nibble(h2), nil
}

// parseURI accumulates the percent-decoded path, capped at uriSizeMax, and
// rewrites a trailing '/' to "/index.html".
func parseURI(t *Transport) (string, error) {
	buf := make([]byte, 0, 64)
	for {
		if len(buf) > uriSizeMax {
			return "", ParseInternal
		}
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if isSpaceByte(b) || b == '\n' || b == '?' || b == '#' {
			break
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		if b == '%' {
			d, perr := decodePercent(t)
			if perr != nil {
				return "", perr
			}
			buf = append(buf, d)
			continue
		}
		buf = append(buf, b)
	}
	if len(buf) > uriSizeMax {
		return "", ParseInternal
	}
	if len(buf) > 0 && buf[len(buf)-1] == '/' {
		buf = append(buf, []byte("index.html")...)
	}
	return string(buf), nil
}

// --- query ---

func parseQuery(t *Transport) ([]QueryVar, error) {
	if _, err := nextIO(t); err != nil { // consume '?'
		return nil, err
	}
	var vars []QueryVar
	for {
		name, perr := parseVarToken(t, '=', urlVarNameMax, true)
		if perr != nil {
			return nil, perr
		}
		b, err := nextIO(t) // consume the '='
		if err != nil {
			return nil, err
		}
		if b != '=' {
			return nil, ParseBad
		}
		val, perr := parseValToken(t)
		if perr != nil {
			return nil, perr
		}
		vars = append(vars, QueryVar{Name: name, Value: val})
		b, err = peekIO(t)
		if err != nil {
			return nil, err
		}
		if b == '&' {
			if _, err := nextIO(t); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return vars, nil
}

// parseVarToken reads a percent-decoded token up to (but not including) sep,
// failing if whitespace appears inside it (only used for query var names).
func parseVarToken(t *Transport, sep byte, max int, rejectWhitespace bool) (string, error) {
	buf := make([]byte, 0, 16)
	for {
		if len(buf) > max {
			return "", ParseInternal
		}
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if b == sep {
			break
		}
		if rejectWhitespace && isSpaceByte(b) {
			return "", ParseBad
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		if b == '%' {
			d, perr := decodePercent(t)
			if perr != nil {
				return "", perr
			}
			buf = append(buf, d)
			continue
		}
		buf = append(buf, b)
	}
	if len(buf) > max {
		return "", ParseInternal
	}
	return string(buf), nil
}

// parseValToken reads a percent-decoded value up to '&', '\r', or whitespace,
// without consuming the terminator.
func parseValToken(t *Transport) (string, error) {
	buf := make([]byte, 0, 16)
	for {
		if len(buf) > urlVarValueMax {
			return "", ParseInternal
		}
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if b == '&' || b == '\r' || isSpaceByte(b) || b == '\n' {
			break
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		if b == '%' {
			d, perr := decodePercent(t)
			if perr != nil {
				return "", perr
			}
			buf = append(buf, d)
			continue
		}
		buf = append(buf, b)
	}
	if len(buf) > urlVarValueMax {
		return "", ParseInternal
	}
	return string(buf), nil
}

// --- fragment ---

func parseFragment(t *Transport) (string, error) {
	buf := make([]byte, 0, 16)
	for {
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if isSpaceByte(b) || b == '\n' {
			break
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		if b == '%' {
			d, perr := decodePercent(t)
			if perr != nil {
				return "", perr
			}
			buf = append(buf, d)
			continue
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// --- version ---

// parseVersion parses "HTTP/" 1*DIGIT "." 1*DIGIT given that first has
// already been peeked (not consumed) as the byte following whitespace.
func parseVersion(t *Transport, first byte) (int, int, error) {
	const prefix = "HTTP/"
	if first != prefix[0] {
		return 0, 0, ParseBad
	}
	for i := 0; i < len(prefix); i++ {
		b, err := nextIO(t)
		if err != nil {
			return 0, 0, err
		}
		if b != prefix[i] {
			return 0, 0, ParseBad
		}
	}

	majorDigits := make([]byte, 0, 4)
	for {
		b, err := peekIO(t)
		if err != nil {
			return 0, 0, err
		}
		if b < '0' || b > '9' {
			break
		}
		majorDigits = append(majorDigits, b)
		if _, err := nextIO(t); err != nil {
			return 0, 0, err
		}
	}
	if len(majorDigits) == 0 {
		return 0, 0, ParseBad
	}
	dot, err := nextIO(t)
	if err != nil {
		return 0, 0, err
	}
	if dot != '.' {
		return 0, 0, ParseBad
	}
	minorDigits := make([]byte, 0, 4)
	for {
		b, err := peekIO(t)
		if err != nil {
			return 0, 0, err
		}
		if b < '0' || b > '9' {
			break
		}
		minorDigits = append(minorDigits, b)
		if _, err := nextIO(t); err != nil {
			return 0, 0, err
		}
	}
	if len(minorDigits) == 0 {
		return 0, 0, ParseBad
	}
	major, _ := strconv.Atoi(string(majorDigits))
	minor, _ := strconv.Atoi(string(minorDigits))
	return major, minor, nil
}

func expectCRLF(t *Transport) error {
	cr, err := nextIO(t)
	if err != nil {
		return err
	}
	if cr != '\r' {
		return ParseBad
	}
	lf, err := nextIO(t)
	if err != nil {
		return err
	}
	if lf != '\n' {
		return ParseBad
	}
	return nil
}

// --- headers ---

func parseHeaders(t *Transport) ([]Header, error) {
	var headers []Header
	for {
		b, err := peekIO(t)
		if err != nil {
			return nil, err
		}
		if b == '\r' {
			if err := expectCRLF(t); err != nil {
				return nil, err
			}
			return headers, nil
		}
		name, perr := parseHeaderName(t)
		if perr != nil {
			return nil, perr
		}
		colon, err := nextIO(t)
		if err != nil {
			return nil, err
		}
		if colon != ':' {
			return nil, ParseBad
		}
		sp, err := nextIO(t)
		if err != nil {
			return nil, err
		}
		if sp != ' ' {
			return nil, ParseBad
		}
		value, perr := parseHeaderValue(t)
		if perr != nil {
			return nil, perr
		}
		if err := expectCRLF(t); err != nil {
			return nil, err
		}
		headers = append(headers, Header{Name: name, Value: value})
	}
}

func parseHeaderName(t *Transport) (string, error) {
	buf := make([]byte, 0, 16)
	for {
		if len(buf) > urlVarNameMax {
			return "", ParseInternal
		}
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if b == ':' {
			break
		}
		if b == '\r' || b == '\n' {
			return "", ParseBad
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		buf = append(buf, b)
	}
	if len(buf) > urlVarNameMax {
		return "", ParseInternal
	}
	return string(buf), nil
}

func parseHeaderValue(t *Transport) (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := peekIO(t)
		if err != nil {
			return "", err
		}
		if b == '\r' {
			break
		}
		if b == '\n' {
			return "", ParseBad
		}
		if _, err := nextIO(t); err != nil {
			return "", err
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}
