package detector

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/metrics"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/test"
)

type fixture struct {
	service  *Service
	loader   *test.FakeLoader
	renderer *test.CopyRenderer
	registry *models.Registry
	hook     *logtest.Hook
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		loader:   &test.FakeLoader{},
		renderer: &test.CopyRenderer{},
		hook:     hook,
		metrics:  metrics.New(),
	}
	f.registry = test.NewRegistry(t.TempDir(), f.loader, models.SizeMedium, models.SizeNano)
	f.service = New(f.registry, f.renderer, WithLogger(log), WithMetrics(f.metrics))
	return f
}

func ptr[T any](v T) *T {
	return &v
}

func TestDetectScenarios(t *testing.T) {
	payload := test.NewMockImageGenerator(64, 48).Base64()

	tests := []struct {
		name      string
		req       Request
		wantErr   error
		wantLen   int
		wantImage bool
	}{
		{
			name:    "default parameters",
			req:     Request{Image: &payload},
			wantLen: 2,
		},
		{
			name:      "render",
			req:       Request{Image: &payload, Render: ptr(true)},
			wantLen:   2,
			wantImage: true,
		},
		{
			name:    "missing image",
			req:     Request{Model: ptr("m")},
			wantErr: common.ErrDecode,
		},
		{
			name:    "bad image",
			req:     Request{Image: ptr("bad image")},
			wantErr: common.ErrDecode,
		},
		{
			name:    "unknown model",
			req:     Request{Image: &payload, Model: ptr("bad model")},
			wantErr: common.ErrModelLoad,
		},
		{
			name:    "conf of one",
			req:     Request{Image: &payload, Conf: ptr(1.0)},
			wantLen: 0,
		},
		{
			name:    "low conf keeps weak rows",
			req:     Request{Image: &payload, Conf: ptr(0.1)},
			wantLen: 3,
		},
		{
			name:    "model without artifact",
			req:     Request{Image: &payload, Model: ptr("x")},
			wantErr: common.ErrModelLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.service.Detect(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Len(t, resp.BBoxes, tt.wantLen)
			assert.Len(t, resp.Confs, tt.wantLen)
			assert.Len(t, resp.Labels, tt.wantLen)
			if !tt.wantImage {
				assert.Nil(t, resp.Image)
				return
			}
			require.NotNil(t, resp.Image)
			img, err := images.Decode(*resp.Image)
			require.NoError(t, err)
			assert.Equal(t, 64, img.Width())
			assert.Equal(t, 48, img.Height())
		})
	}
}

func TestDetectLabelsAndOrder(t *testing.T) {
	f := newFixture(t)
	payload := test.NewMockImageGenerator(640, 640).Base64()

	resp, err := f.service.Detect(context.Background(), Request{Image: &payload})
	require.NoError(t, err)

	assert.Equal(t, []string{"person", "car"}, resp.Labels)
	assert.Equal(t, []float32{0.92, 0.81}, resp.Confs)
	assert.Equal(t, common.BoundingBox{Left: 140, Top: 90, Width: 120, Height: 300}, resp.BBoxes[0])
	assert.Equal(t, common.BoundingBox{Left: 380, Top: 340, Width: 200, Height: 120}, resp.BBoxes[1])
}

func TestDetectUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.service = New(f.registry, f.renderer, WithDefaults(Defaults{Model: "n", Conf: 0.85}))
	payload := test.NewMockImageGenerator(32, 32).Base64()

	resp, err := f.service.Detect(context.Background(), Request{Image: &payload})
	require.NoError(t, err)
	assert.Equal(t, []string{"person"}, resp.Labels)

	nano := f.loader.Handle(models.ArtifactPath(f.registry.Dir(), models.SizeNano))
	require.NotNil(t, nano)
	assert.Equal(t, int32(1), nano.Calls.Load())
}

func TestDetectConfZeroIsHonored(t *testing.T) {
	f := newFixture(t)
	payload := test.NewMockImageGenerator(32, 32).Base64()

	resp, err := f.service.Detect(context.Background(), Request{Image: &payload, Conf: ptr(0.0)})
	require.NoError(t, err)
	assert.Len(t, resp.Labels, 3)
}

func TestDetectRenderNotRequestedSkipsRenderer(t *testing.T) {
	f := newFixture(t)
	payload := test.NewMockImageGenerator(32, 32).Base64()

	_, err := f.service.Detect(context.Background(), Request{Image: &payload, Render: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.renderer.Calls.Load())
}

func TestDetectWithoutRenderer(t *testing.T) {
	f := newFixture(t)
	f.service = New(f.registry, nil)
	payload := test.NewMockImageGenerator(32, 32).Base64()

	_, err := f.service.Detect(context.Background(), Request{Image: &payload, Render: ptr(true)})
	assert.ErrorIs(t, err, common.ErrInference)
}

func TestDetectInferenceFailure(t *testing.T) {
	f := newFixture(t)
	f.loader.NewHandle = func(string) *test.FakeHandle {
		return &test.FakeHandle{Err: errors.New("device lost")}
	}
	payload := test.NewMockImageGenerator(32, 32).Base64()

	_, err := f.service.Detect(context.Background(), Request{Image: &payload})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInference)
	assert.Contains(t, err.Error(), "device lost")

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "InferenceError", entry.Data["kind"])
	assert.Equal(t, "m", entry.Data["model"])
}

func TestDetectMalformedOutput(t *testing.T) {
	f := newFixture(t)
	f.loader.NewHandle = func(string) *test.FakeHandle {
		return &test.FakeHandle{Output: test.NewOutput(3, test.Row{Objectness: 0.9, ClassScore: 0.9})}
	}
	payload := test.NewMockImageGenerator(32, 32).Base64()

	_, err := f.service.Detect(context.Background(), Request{Image: &payload})
	assert.ErrorIs(t, err, common.ErrMalformedOutput)
}

func TestDetectLogsStages(t *testing.T) {
	f := newFixture(t)
	payload := test.NewMockImageGenerator(32, 32).Base64()

	_, err := f.service.Detect(context.Background(), Request{Image: &payload, Render: ptr(true)})
	require.NoError(t, err)

	var messages []string
	for _, e := range f.hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{
		"Reading image...",
		"Loading model...",
		"Detecting...",
		"Inference: 12.50 ms",
		"Rendering...",
		"Encoding image...",
		"Request complete",
	}, messages)
}

func TestHandleBody(t *testing.T) {
	f := newFixture(t)
	payload := test.NewMockImageGenerator(32, 32).Base64()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "request", body: `{"image":"` + payload + `"}`},
		{name: "empty body", body: "", wantErr: common.ErrRequest},
		{name: "malformed json", body: "{", wantErr: common.ErrRequest},
		{name: "empty object", body: "{}", wantErr: common.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.HandleBody(context.Background(), []byte(tt.body))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
