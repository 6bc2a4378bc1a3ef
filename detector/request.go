package detector

import (
	"bytes"
	"encoding/json"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/models"
)

// Request is a detection request body. Absent fields take the service
// defaults; unknown fields are ignored.
type Request struct {
	// Image is the base64 encoded input image.
	Image *string `json:"image,omitempty"`
	// Model is the model size tag.
	Model *string `json:"model,omitempty"`
	// Conf is the objectness threshold.
	Conf *float64 `json:"conf,omitempty"`
	// Render requests the annotated image in the response.
	Render *bool `json:"render,omitempty"`
}

// Defaults fill absent request fields.
type Defaults struct {
	Model string
	Conf  float64
}

// DefaultDefaults returns model "m" and a 0.5 threshold.
func DefaultDefaults() Defaults {
	return Defaults{Model: string(models.SizeMedium), Conf: 0.5}
}

// resolved is a request with every default applied.
type resolved struct {
	image  string
	model  string
	conf   float32
	render bool
}

func (r Request) resolve(d Defaults) (resolved, error) {
	const op = "detector.Request"

	out := resolved{model: d.Model, conf: float32(d.Conf)}
	if r.Image == nil || *r.Image == "" {
		return out, common.E(common.KindDecode, op, "missing image")
	}
	out.image = *r.Image
	if r.Model != nil {
		out.model = *r.Model
	}
	if r.Conf != nil {
		out.conf = float32(*r.Conf)
	}
	if r.Render != nil {
		out.render = *r.Render
	}
	return out, nil
}

// ParseRequest decodes a request body. A proxy event whose "body" field holds
// the request JSON as a string is unwrapped first.
//
// Arguments:
//   - data: The raw body.
//
// Returns:
//   - Request: The request.
//   - error: A common.KindRequest error for an empty or malformed body.
func ParseRequest(data []byte) (Request, error) {
	const op = "detector.ParseRequest"

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, common.E(common.KindRequest, op, "empty request body")
	}

	var envelope struct {
		Request
		Body *string `json:"body"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Request{}, common.Wrap(common.KindRequest, op, err)
	}
	if envelope.Body != nil && envelope.Image == nil {
		return ParseRequest([]byte(*envelope.Body))
	}
	return envelope.Request, nil
}
