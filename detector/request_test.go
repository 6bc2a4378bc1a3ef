package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/common"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Request
		wantErr error
	}{
		{
			name: "all fields",
			body: `{"image":"aGk=","model":"s","conf":0.3,"render":true}`,
			want: Request{Image: ptr("aGk="), Model: ptr("s"), Conf: ptr(0.3), Render: ptr(true)},
		},
		{
			name: "unknown fields ignored",
			body: `{"image":"aGk=","extra":[1,2]}`,
			want: Request{Image: ptr("aGk=")},
		},
		{
			name: "zero conf is kept",
			body: `{"conf":0}`,
			want: Request{Conf: ptr(0.0)},
		},
		{
			name: "proxy event body",
			body: `{"httpMethod":"POST","body":"{\"image\":\"aGk=\",\"model\":\"n\"}"}`,
			want: Request{Image: ptr("aGk="), Model: ptr("n")},
		},
		{
			name:    "proxy event with empty body",
			body:    `{"body":""}`,
			wantErr: common.ErrRequest,
		},
		{
			name:    "empty",
			body:    "  \n",
			wantErr: common.ErrRequest,
		},
		{
			name:    "not json",
			body:    "image=abc",
			wantErr: common.ErrRequest,
		},
		{
			name:    "wrong type",
			body:    `{"conf":"high"}`,
			wantErr: common.ErrRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	d := DefaultDefaults()

	r, err := Request{Image: ptr("x")}.resolve(d)
	require.NoError(t, err)
	assert.Equal(t, resolved{image: "x", model: "m", conf: 0.5}, r)

	r, err = Request{Image: ptr("x"), Model: ptr("l"), Conf: ptr(0.0), Render: ptr(true)}.resolve(d)
	require.NoError(t, err)
	assert.Equal(t, resolved{image: "x", model: "l", conf: 0, render: true}, r)

	_, err = Request{Image: ptr("")}.resolve(d)
	assert.ErrorIs(t, err, common.ErrDecode)
}
