package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/results"
	fixtures "github.com/nvr-ai/go-detect/test"
)

func TestNATSReply(t *testing.T) {
	p := newPipeline(t)
	payload := fixtures.NewMockImageGenerator(32, 32).Base64()

	out, failure := natsReply(context.Background(), p, []byte(`{"image":"`+payload+`"}`))
	require.Nil(t, failure)
	var resp results.Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Len(t, resp.Labels, resp.Len())
	assert.NotZero(t, resp.Len())

	out, failure = natsReply(context.Background(), p, []byte(`{"image":"bad image"}`))
	require.NotNil(t, failure)
	assert.Contains(t, failure.Error, "DecodeError")
	var body results.ErrorBody
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, *failure, body)
}
