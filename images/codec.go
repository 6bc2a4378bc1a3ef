package images

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	// Registered for imaging.Decode; imaging covers jpeg/png/gif/bmp/tiff.
	_ "golang.org/x/image/webp"

	"github.com/nvr-ai/go-detect/common"
)

// Decode converts a base64 image payload into a PixelImage.
//
// The payload may carry a "data:<mime>;base64," prefix. Padded and unpadded
// standard base64 are both accepted.
//
// Arguments:
//   - payload: The base64 string.
//
// Returns:
//   - *PixelImage: The decoded RGB image.
//   - error: A common.KindDecode error if the payload is empty, not base64, or
//     not a decodable image.
func Decode(payload string) (*PixelImage, error) {
	const op = "images.Decode"

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, common.Wrap(common.KindDecode, op, err)
	}

	img, err := DecodeBytes(data)
	if err != nil {
		return nil, common.Wrap(common.KindDecode, op, err)
	}
	return img, nil
}

// DecodeBytes decodes raw encoded image bytes (PNG, JPEG, GIF, BMP, TIFF, WebP).
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - *PixelImage: The decoded RGB image.
//   - error: An error if the bytes are not a supported image.
func DecodeBytes(data []byte) (*PixelImage, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "cannot identify image")
	}
	return FromImage(img), nil
}

func decodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, errors.New("invalid data URL")
		}
		s = s[comma+1:]
	}
	if s == "" {
		return nil, errors.New("image payload is empty")
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, errors.Wrap(err, "invalid base64 payload")
}

// Encode serializes the image as PNG and returns it base64 encoded.
//
// Arguments:
//   - img: The image to encode.
//
// Returns:
//   - string: The standard base64 encoding of the PNG bytes.
//   - error: An error if img is nil or the encoder fails.
func Encode(img *PixelImage) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, img, FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Write encodes the image to w in the given format.
//
// Arguments:
//   - w: The destination writer.
//   - img: The image to encode.
//   - format: One of the writable formats (WebP is decode-only).
//
// Returns:
//   - error: An error if img is nil, the format is unsupported, or encoding fails.
func Write(w io.Writer, img *PixelImage, format ImageFormat) error {
	if img == nil || img.NRGBA == nil {
		return errors.New("image is nil")
	}
	enc, ok := encoders[format]
	if !ok {
		return errors.Errorf("unsupported output format: %s", format)
	}
	return errors.Wrapf(imaging.Encode(w, img.NRGBA, enc), "encode %s", format)
}

// Load reads and decodes an image file.
//
// Arguments:
//   - path: The file path.
//
// Returns:
//   - *PixelImage: The decoded RGB image.
//   - error: A common.KindDecode error if the file cannot be read or decoded.
func Load(path string) (*PixelImage, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, common.Wrap(common.KindDecode, "images.Load", err)
	}
	return FromImage(img), nil
}

// Save encodes the image to path, choosing the format from its extension.
//
// Arguments:
//   - path: The destination path.
//   - img: The image to save.
//
// Returns:
//   - error: An error if the extension is unknown or the write fails.
func Save(path string, img *PixelImage) error {
	if img == nil || img.NRGBA == nil {
		return errors.New("image is nil")
	}
	return errors.Wrapf(imaging.Save(img.NRGBA, path), "save %s", path)
}
