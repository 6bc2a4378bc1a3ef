package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/results"
)

// LambdaHandler adapts the pipeline to API Gateway proxy events. Every
// outcome uses the same envelope; failures are a 500 with an ErrorBody and
// never a Lambda invocation error.
func LambdaHandler(p Pipeline) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				return envelope(http.StatusInternalServerError,
					results.NewErrorBody(common.Wrap(common.KindRequest, "server.Lambda", err))), nil
			}
			body = decoded
		}

		resp, err := p.HandleBody(ctx, body)
		if err != nil {
			return envelope(http.StatusInternalServerError, results.NewErrorBody(err)), nil
		}
		return envelope(http.StatusOK, resp), nil
	}
}

func envelope(status int, v interface{}) events.APIGatewayProxyResponse {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"response encoding failed"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
