// Package decoder wraps the QR decoding library behind the two modes the
// application needs: a per-frame attempt for live capture, where a miss is the
// normal steady state, and a one-shot decode for uploaded images, where a miss
// is surfaced as ErrNoCode.
package decoder

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode is returned by the one-shot decode paths when the image holds no
// readable QR payload.
var ErrNoCode = errors.New("no QR code found in image")

// QR decodes QR payloads from images.
type QR struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// New returns a decoder for live frames.
func New() *QR {
	return &QR{}
}

// NewTryHarder returns a decoder tuned for still images, spending more effort
// per decode than the per-frame path can afford.
func NewTryHarder() *QR {
	return &QR{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

// AttemptDecode scans a single frame. It returns immediately; a frame without
// a code yields ("", false), never an error.
func (q *QR) AttemptDecode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, q.hints)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// DecodeImage decodes an uploaded still image, returning ErrNoCode when no
// payload is present.
func (q *QR) DecodeImage(img image.Image) (string, error) {
	payload, ok := q.AttemptDecode(img)
	if !ok {
		return "", ErrNoCode
	}
	return payload, nil
}

// DecodeFile reads and decodes an image file.
func (q *QR) DecodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", err
	}
	return q.DecodeImage(img)
}
