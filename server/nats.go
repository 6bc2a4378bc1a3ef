package server

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/results"
)

// ServiceVersion is reported by the NATS micro service.
const ServiceVersion = "0.1.0"

// AddNATSService registers the detect endpoint on subject.
//
// Arguments:
//   - nc: The NATS connection.
//   - subject: The request subject.
//   - p: The pipeline.
//   - log: The logger.
//
// Returns:
//   - micro.Service: The running service; Stop it on shutdown.
//   - error: An error if registration fails.
func AddNATSService(nc *nats.Conn, subject string, p Pipeline, log logrus.FieldLogger) (micro.Service, error) {
	return micro.AddService(nc, micro.Config{
		Name:        "detect",
		Version:     ServiceVersion,
		Description: "Object detection over base64 images",
		Endpoint: &micro.EndpointConfig{
			Subject: subject,
			Handler: NATSHandler(p, log),
		},
	})
}

// NATSHandler answers Request JSON with Response JSON, or a "500" micro
// error carrying the ErrorBody.
func NATSHandler(p Pipeline, log logrus.FieldLogger) micro.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return micro.HandlerFunc(func(req micro.Request) {
		log.WithField("subject", req.Subject()).Debug("Received detection request")

		reply, failure := natsReply(context.Background(), p, req.Data())
		if failure != nil {
			if err := req.Error("500", failure.Error, reply); err != nil {
				log.WithError(err).Warn("NATS error reply failed")
			}
			return
		}
		if err := req.Respond(reply); err != nil {
			log.WithError(err).Warn("NATS reply failed")
		}
	})
}

// natsReply runs the pipeline and returns the reply payload, with the
// ErrorBody set when the request failed.
func natsReply(ctx context.Context, p Pipeline, data []byte) ([]byte, *results.ErrorBody) {
	resp, err := p.HandleBody(ctx, data)
	if err != nil {
		body := results.NewErrorBody(err)
		out, _ := json.Marshal(body)
		return out, &body
	}
	out, err := json.Marshal(resp)
	if err != nil {
		body := results.ErrorBody{Error: "response encoding failed"}
		out, _ = json.Marshal(body)
		return out, &body
	}
	return out, nil
}
