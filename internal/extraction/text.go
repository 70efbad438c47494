package extraction

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText turns a remote text body into a clean UTF-8 string.
//
// A leading byte order mark selects the decoding (UTF-8, UTF-16 LE or BE)
// and is removed; without one the body is taken as UTF-8. Invalid byte
// sequences become U+FFFD so a single bad byte cannot break the parser or
// the JSON views downstream.
func decodeText(op string, raw []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return "", &RemoteError{Op: op, Err: fmt.Errorf("decode text: %w", err)}
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
