package menuapi

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

var gzipMagic = []byte{0x1f, 0x8b}

// decompress inflates brotli bodies. Resty inflates gzip on its own, so a gzip
// body is only decoded here when it still carries the gzip header.
func decompress(_ *resty.Client, resp *resty.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header().Get("Content-Encoding")))
	body := resp.Body()
	if encoding == "" || len(body) == 0 {
		return nil
	}

	var reader io.Reader
	switch encoding {
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "gzip":
		if !bytes.HasPrefix(body, gzipMagic) {
			return nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("menuapi: open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		return nil
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("menuapi: decode %s body: %w", encoding, err)
	}
	resp.SetBody(decoded)
	return nil
}
