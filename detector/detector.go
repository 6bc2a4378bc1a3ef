// Package detector - The detection pipeline shared by every transport.
package detector

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/metrics"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/results"
)

// ModelRegistry resolves size tags to loaded handles. *models.Registry
// satisfies it.
type ModelRegistry interface {
	Load(ctx context.Context, tag string) (inference.Handle, error)
	Loaded() int
}

// Renderer draws detections onto a copy of an image.
type Renderer interface {
	Render(img *images.PixelImage, detections []postprocess.Detection) (*images.PixelImage, error)
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Model is the size tag that served the request.
	Model string
	// Detections in NMS survivor order.
	Detections []postprocess.Detection
	// Rendered is the annotated image, nil unless rendering was requested.
	Rendered *images.PixelImage
	// Encoded is the base64 PNG of Rendered.
	Encoded *string
	// LatencyMs is the forward pass latency.
	LatencyMs float64
}

// Service runs decode, inference, parsing, rendering and formatting.
type Service struct {
	registry ModelRegistry
	renderer Renderer
	parse    postprocess.Options
	defaults Defaults
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithParseOptions sets the parser thresholds and label table.
func WithParseOptions(opts postprocess.Options) Option {
	return func(s *Service) { s.parse = opts }
}

// WithDefaults sets the values used for absent request fields.
func WithDefaults(d Defaults) Option {
	return func(s *Service) { s.defaults = d }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a pipeline.
//
// Arguments:
//   - registry: The model registry.
//   - renderer: The renderer, or nil to reject render requests.
//   - opts: Optional settings.
//
// Returns:
//   - *Service: The pipeline.
func New(registry ModelRegistry, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		renderer: renderer,
		parse:    postprocess.DefaultOptions(),
		defaults: DefaultDefaults(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleBody parses a raw request body and runs Detect.
func (s *Service) HandleBody(ctx context.Context, body []byte) (results.Response, error) {
	req, err := ParseRequest(body)
	if err != nil {
		s.finish(nil, "", err)
		return results.Response{}, err
	}
	s.log.WithFields(logrus.Fields{
		"image":  req.Image != nil,
		"model":  req.Model != nil,
		"conf":   req.Conf != nil,
		"render": req.Render != nil,
	}).Debug("Request fields present")
	return s.Detect(ctx, req)
}

// Detect runs the pipeline and formats the response body.
//
// Arguments:
//   - ctx: The request context.
//   - req: The request.
//
// Returns:
//   - results.Response: The response body.
//   - error: The classified failure; callers map any error to a 500.
func (s *Service) Detect(ctx context.Context, req Request) (results.Response, error) {
	res, err := s.Run(ctx, req)
	if err != nil {
		return results.Response{}, err
	}
	return results.Format(res.Detections, res.Encoded), nil
}

// Run executes the pipeline and returns the intermediate results.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if s.metrics != nil {
		s.metrics.InFlight.Add(1)
		defer s.metrics.InFlight.Add(-1)
	}

	r, err := req.resolve(s.defaults)
	if err != nil {
		s.finish(nil, r.model, err)
		return nil, err
	}

	res, err := s.run(ctx, r)
	s.finish(res, r.model, err)
	return res, err
}

func (s *Service) run(ctx context.Context, r resolved) (*Result, error) {
	log := s.log.WithField("model", r.model)

	log.Info("Reading image...")
	img, err := images.Decode(r.image)
	if err != nil {
		return nil, err
	}

	log.Info("Loading model...")
	handle, err := s.registry.Load(ctx, r.model)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SetModelsLoaded(s.registry.Loaded())
	}

	log.Info("Detecting...")
	raw, err := handle.Infer(ctx, img)
	if err != nil {
		if common.KindOf(err) == common.KindUnknown {
			err = common.Wrap(common.KindInference, "detector.Infer", err)
		}
		return nil, err
	}
	latency := handle.LastInferenceLatencyMs()
	log.Infof("Inference: %.2f ms", latency)
	if s.metrics != nil {
		s.metrics.ObserveInference(r.model, latency)
	}

	detections, err := postprocess.Parse(raw, img.Size(), r.conf, s.parse)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Model:      r.model,
		Detections: detections,
		LatencyMs:  latency,
	}
	if !r.render {
		return res, nil
	}

	if s.renderer == nil {
		return nil, common.E(common.KindInference, "detector.Render", "rendering is not available")
	}
	log.Info("Rendering...")
	rendered, err := s.renderer.Render(img, detections)
	if err != nil {
		return nil, err
	}

	log.Info("Encoding image...")
	encoded, err := images.Encode(rendered)
	if err != nil {
		return nil, err
	}
	res.Rendered = rendered
	res.Encoded = &encoded
	return res, nil
}

// finish logs the outcome and updates the request metrics.
func (s *Service) finish(res *Result, model string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(err)
		if err == nil {
			s.metrics.ObserveDetections(len(res.Detections))
		}
	}
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"model":      model,
			"detections": len(res.Detections),
		}).Debug("Request complete")
		return
	}

	fields := logrus.Fields{"kind": common.KindOf(err).String(), "model": model}
	var e *common.Error
	if errors.As(err, &e) {
		fields["op"] = e.Op
	}
	s.log.WithFields(fields).WithError(err).Error("Detection failed")
}
