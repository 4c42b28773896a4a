package setup

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// QRSize is the edge length in pixels of generated PNG codes.
const QRSize = 256

// PairingURL is the address the phone opens: http://{ip}:{port}/setup?session={id}.
func PairingURL(ip string, port int, id string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(ip, strconv.Itoa(port)),
		Path:     "/setup",
		RawQuery: url.Values{"session": {id}}.Encode(),
	}
	return u.String()
}

// Encode builds a QR code for text with medium error correction.
func Encode(text string) (barcode.Barcode, error) {
	code, err := qr.Encode(text, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code, nil
}

// PNG renders text as a size×size PNG.
func PNG(text string, size int) ([]byte, error) {
	code, err := Encode(text)
	if err != nil {
		return nil, err
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL renders text as a base64 PNG data URL suitable for an <img> src.
func DataURL(text string) (string, error) {
	data, err := PNG(text, QRSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Terminal renders text as a QR code drawn with half-block characters, two modules per line, surrounded by a quiet
// zone. Dark modules are spaces so the code reads correctly on dark terminal themes.
func Terminal(text string) (string, error) {
	code, err := Encode(text)
	if err != nil {
		return "", err
	}

	const quiet = 2
	b := code.Bounds()
	size := b.Dx()

	dark := func(x, y int) bool {
		x, y = x-quiet, y-quiet
		if x < 0 || y < 0 || x >= size || y >= size {
			return false
		}
		r, _, _, _ := code.At(b.Min.X+x, b.Min.Y+y).RGBA()
		return r < 0x8000
	}

	var sb strings.Builder
	total := size + 2*quiet
	for y := 0; y < total; y += 2 {
		for x := 0; x < total; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune(' ')
			case top:
				sb.WriteRune('▄')
			case bottom:
				sb.WriteRune('▀')
			default:
				sb.WriteRune('█')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
