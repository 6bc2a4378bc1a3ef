package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/app"
	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/results"
	"github.com/nvr-ai/go-detect/util"
)

func main() {
	os.Exit(run())
}

// run detects objects in every input image and returns the process exit
// code: 0 on success, 1 when any image failed, 2 for usage errors.
func run() int {
	cfg := config.Load()

	var (
		imagePath string
		model     string
		conf      float64
		render    bool
	)
	flag.StringVar(&imagePath, "image", "", "Path to image or directory of images")
	flag.StringVar(&model, "model", cfg.DefaultModel, "Model size to use (n, s, m, l, x)")
	flag.Float64Var(&conf, "conf", cfg.DefaultConf, "Confidence threshold")
	flag.BoolVar(&render, "render", false, "Render image with bounding boxes")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if imagePath == "" {
		flag.Usage()
		return 2
	}
	cfg.DefaultModel = model
	cfg.DefaultConf = conf

	a, err := app.New(cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize")
		return 1
	}
	defer a.Close()

	files, err := util.LoadImageFiles(imagePath)
	if err != nil {
		a.Log.WithError(err).Error("Failed to read input")
		return 1
	}

	failed := false
	for _, f := range files {
		if err := detectFile(a, f, render); err != nil {
			a.Log.WithError(err).WithField("image", f.Path).Error("Detection failed")
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func detectFile(a *app.App, f util.ImageFile, render bool) error {
	payload := base64.StdEncoding.EncodeToString(f.Data)
	res, err := a.Service.Run(context.Background(), detector.Request{
		Image:  &payload,
		Render: &render,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", f.Path)
	fmt.Printf("Inference: %.2f ms\n", res.LatencyMs)
	if err := results.PrintTable(os.Stdout, res.Detections); err != nil {
		return err
	}

	if res.Encoded == nil {
		return nil
	}
	a.Log.Info("Decoding image...")
	output, err := images.Decode(*res.Encoded)
	if err != nil {
		return err
	}
	out := util.OutputPath(f.Path)
	if err := images.Save(out, output); err != nil {
		return err
	}
	a.Log.WithField("path", out).Info("Annotated image written")
	return nil
}
