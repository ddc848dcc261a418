// Command proposals runs the region proposal layer over score and delta
// blobs produced by a detection backbone, writing the refined proposals as a
// float32 blob and, optionally, an annotated PNG.
package main

import (
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-rpn/anchors"
	"github.com/nvr-ai/go-rpn/boxes"
	"github.com/nvr-ai/go-rpn/profiler"
	"github.com/nvr-ai/go-rpn/proposal"
	"github.com/nvr-ai/go-rpn/render"
	"github.com/nvr-ai/go-rpn/util"
)

func main() {
	configPath := flag.String("config", "", "optional YAML configuration file")
	anchorsFlag := flag.String("anchors", "", "anchor blob locator (path, file:// or http(s):// URL)")
	scoresFlag := flag.String("scores", "", "score blob path, float32 (N, 2) pairs")
	deltasFlag := flag.String("deltas", "", "delta blob path, float32 (N, 4) rows")
	outputFlag := flag.String("output", "", "output blob path")
	overlayFlag := flag.String("overlay", "", "annotated PNG path")
	runsFlag := flag.Int("runs", 0, "repeat proposal generation for timing")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("configuration failed", zap.Error(err))
	}

	// Flags take precedence over file and environment values.
	if *anchorsFlag != "" {
		cfg.Anchors = *anchorsFlag
	}
	if *scoresFlag != "" {
		cfg.Scores = *scoresFlag
	}
	if *deltasFlag != "" {
		cfg.Deltas = *deltasFlag
	}
	if *outputFlag != "" {
		cfg.Output = *outputFlag
	}
	if *overlayFlag != "" {
		cfg.Overlay.Path = *overlayFlag
	}
	if *runsFlag > 0 {
		cfg.Runs = *runsFlag
	}
	if *debugFlag {
		cfg.Debug = true
	}

	log := newLogger(cfg.Debug)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("proposal generation failed", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}

func run(cfg *Config, log *zap.Logger) error {
	if cfg.Anchors == "" || cfg.Scores == "" || cfg.Deltas == "" {
		return errors.New("anchors, scores and deltas inputs are required")
	}

	store, err := anchors.Load(cfg.Anchors)
	if err != nil {
		return err
	}
	log.Info("anchors loaded",
		zap.String("locator", cfg.Anchors),
		zap.Int("count", store.Len()))

	scores, err := util.ReadFloat32File(cfg.Scores)
	if err != nil {
		return err
	}
	deltas, err := util.ReadFloat32File(cfg.Deltas)
	if err != nil {
		return err
	}

	params := proposal.DefaultParams().Override(cfg.LayerSettings())
	timer := profiler.NewStageTimer()

	layer, err := proposal.NewWithOptions(store, params, proposal.Options{
		Logger:  log,
		OnStage: timer.Hook(),
	})
	if err != nil {
		return err
	}
	log.Debug("layer configured",
		zap.Int("pre_nms_max_proposals", layer.Params().PreNMSMaxProposals),
		zap.Int("max_proposals", layer.Params().MaxProposals),
		zap.Float32("nms_iou_threshold", layer.Params().NMSIOUThreshold))

	runs := cfg.Runs
	if runs < 1 {
		runs = 1
	}
	out := make([]float32, layer.OutputLen())
	for i := 0; i < runs; i++ {
		if err := layer.ProposeInto(out, scores, deltas); err != nil {
			return err
		}
	}

	if err := util.WriteFloat32File(cfg.Output, out); err != nil {
		return err
	}

	props := boxes.FromRows(out)
	kept := 0
	for _, b := range props {
		if !b.Empty() {
			kept++
		}
	}
	log.Info("proposals written",
		zap.String("path", cfg.Output),
		zap.Int("kept", kept),
		zap.Int("capacity", layer.Params().MaxProposals),
		zap.Int("runs", runs))

	if cfg.Overlay.Path != "" {
		if err := writeOverlay(cfg.Overlay, props); err != nil {
			return err
		}
		log.Info("overlay written", zap.String("path", cfg.Overlay.Path))
	}

	timer.Report(os.Stdout)
	return nil
}

// writeOverlay renders the kept proposals onto the configured base image, or
// onto a blank canvas when none is given.
func writeOverlay(cfg OverlayConfig, props []boxes.Box) error {
	var base image.Image
	if cfg.Base != "" {
		f, err := os.Open(cfg.Base)
		if err != nil {
			return errors.Wrapf(err, "open overlay base %s", cfg.Base)
		}
		base, _, err = image.Decode(f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "decode overlay base %s", cfg.Base)
		}
	} else {
		base = image.NewRGBA(image.Rect(0, 0, 768, 768))
	}

	img := render.Overlay(base, props, render.Options{
		Thickness: cfg.Thickness,
		MaxDim:    cfg.MaxDim,
	})
	return render.SavePNG(cfg.Path, img)
}
