package results

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

var sample = []postprocess.Detection{
	{Box: common.BoundingBox{Left: 10, Top: 20, Width: 30, Height: 40}, Confidence: 0.8765, Label: "person"},
	{Box: common.BoundingBox{Left: -3, Top: 0, Width: 5, Height: 6}, Confidence: 0.5, Label: "traffic light", Class: 9},
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		dets  []postprocess.Detection
		image *string
		want  string
	}{
		{
			name: "empty",
			dets: nil,
			want: `{"bboxes":[],"confs":[],"labels":[]}`,
		},
		{
			name: "detections without image",
			dets: sample,
			want: `{"bboxes":[[10,20,30,40],[-3,0,5,6]],"confs":[0.8765,0.5],"labels":["person","traffic light"]}`,
		},
		{
			name:  "with image",
			dets:  sample[:1],
			image: strPtr("aGk="),
			want:  `{"bboxes":[[10,20,30,40]],"confs":[0.8765],"labels":["person"],"image":"aGk="}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Format(tt.dets, tt.image)
			assert.Equal(t, len(tt.dets), resp.Len())
			assert.Len(t, resp.Confs, resp.Len())
			assert.Len(t, resp.Labels, resp.Len())

			data, err := json.Marshal(resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	data, err := json.Marshal(Format(sample, nil))
	require.NoError(t, err)

	var got Response
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, Format(sample, nil), got)
}

func TestNewErrorBody(t *testing.T) {
	err := common.E(common.KindDecode, "images.Decode", "image is empty")
	data, jerr := json.Marshal(NewErrorBody(err))
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"error":"DecodeError: images.Decode: image is empty"}`, string(data))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, sample))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	rule := strings.Repeat("-", 75)
	assert.Equal(t, rule, lines[0])
	assert.Equal(t, rule, lines[2])
	assert.Equal(t, rule, lines[5])
	assert.Equal(t, "Label           Confidence      Left       Top        Width      Height    ", lines[1])
	assert.Equal(t, "person          0.8765          10         20         30         40        ", lines[3])
	assert.Equal(t, "traffic light   0.5             -3         0          5          6         ", lines[4])
}

func strPtr(s string) *string {
	return &s
}
