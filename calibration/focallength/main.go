package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rangefinder/calibration"
	"rangefinder/camera"
	"rangefinder/config"
	"rangefinder/detection/yolo"
	"rangefinder/logger"
	"rangefinder/overlay"
	"rangefinder/pipeline"
)

type options struct {
	device        string
	width         int
	height        int
	model         string
	names         string
	inputSize     int
	knownWidth    float64
	knownDistance float64
	threshold     float64
}

func parseFlags() options {
	def := config.Default()
	var o options

	flag.StringVar(&o.device, "device", def.Device, "Camera index or stream URL/file")
	flag.IntVar(&o.width, "width", def.FrameWidth, "Requested capture width in pixels")
	flag.IntVar(&o.height, "height", def.FrameHeight, "Requested capture height in pixels")
	flag.StringVar(&o.model, "model", def.ModelPath, "YOLO ONNX model path")
	flag.StringVar(&o.names, "names", def.NamesPath, "Class names file, one label per line")
	flag.IntVar(&o.inputSize, "imgsz", 224, "Network input size (multiple of 32)")
	flag.Float64Var(&o.knownWidth, "known-width", 7.5, "Real width of the reference object\n\t\tUse the same unit as real_width in the object config")
	flag.Float64Var(&o.knownDistance, "known-distance", 30.0, "Distance from the camera to the reference object")
	flag.Float64Var(&o.threshold, "threshold", 0.5, "Minimum confidence for a detection to be measured")
	flag.Parse()

	return o
}

func main() {
	o := parseFlags()
	logger.SetDefault(logger.New(logger.INFO, os.Stdout))

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	sampler, err := calibration.NewFocalSampler(o.knownWidth, o.knownDistance, o.threshold)
	if err != nil {
		return err
	}

	pm := yolo.NewProviderManager()
	opts := yolo.DefaultOptions()
	opts.InputSize = o.inputSize
	if err := pm.Initialize(o.model, o.names, opts); err != nil {
		return fmt.Errorf("error loading model: %w", err)
	}
	defer pm.Close()
	logger.Info("MODEL", "Using %s", pm.GetProviderInfo())

	cam, err := camera.Open(o.device, o.width, o.height)
	if err != nil {
		return err
	}
	defer cam.Close()

	win := camera.NewWindow("Focal Length Calibration")
	defer win.Close()

	renderer := overlay.NewRenderer(cam.Width(), cam.Height())

	fmt.Printf("📏 FOCAL LENGTH CALIBRATION\n")
	fmt.Printf("==========================\n")
	fmt.Printf("1. Place the reference object (%.2f wide) exactly %.2f from the camera.\n", o.knownWidth, o.knownDistance)
	fmt.Printf("2. Wait until it is detected with confidence >= %.2f.\n", sampler.Threshold())
	fmt.Printf("3. Press 'c' to compute the focal length, 'q' to quit.\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		frame, err := cam.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("CALIB", "End of stream")
				return nil
			}
			return err
		}

		dets, err := pm.Detect(frame.Mat)
		if err != nil {
			logger.Warn("CALIB", "Detection failed: %v", err)
		}
		sampler.Observe(dets)
		renderer.DrawPixelWidths(frame, dets, sampler.Threshold())

		key := win.Show(frame)
		frame.Close()

		switch key {
		case pipeline.KeyQuit:
			return nil
		case pipeline.KeyCommit:
			sampler.CommitTo(os.Stdout)
		}
	}
	return nil
}
