package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/app"
	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/server"
)

func main() {
	a, err := app.New(config.Load())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize handler")
	}
	defer a.Close()

	lambda.Start(server.LambdaHandler(a.Service))
}
