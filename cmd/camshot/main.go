package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/abihf/camshot"
	"github.com/abihf/camshot/config"
	"github.com/abihf/camshot/picker"
	"github.com/abihf/camshot/session"
	"github.com/pkg/errors"
)

var (
	configPath = flag.String("config", "", "config file (default $CAMSHOT_CONFIG or "+config.DefaultPath+")")
	facingFlag = flag.String("facing", "back", "camera to use: back or front")
	portrait   = flag.Bool("portrait", false, "turn landscape frames upright for a portrait display")
	quality    = flag.Float64("quality", -1, "JPEG quality between 0 and 1 (default from config)")
	fromFile   = flag.String("file", "", "use this image instead of the native picker when falling back")
	verbose    = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [output.jpg]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := mainE(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainE() error {
	var conf *config.Config
	if *configPath != "" {
		conf = config.LoadPath(*configPath)
	} else {
		conf = config.Load()
	}
	if *quality >= 0 {
		conf.Quality = *quality
	}
	facing, err := session.ParseFacing(*facingFlag)
	if err != nil {
		return err
	}

	output := flag.Arg(0)
	if output == "" {
		output = camshot.OutputName()
	}

	var cam *camshot.Camera
	if *fromFile != "" {
		cam = camshot.NewWithOption(session.Option{
			Picker:   picker.File(*fromFile),
			Platform: session.Fixed(false),
		}, conf.Quality)
	} else if cam, err = camshot.New(conf); err != nil {
		return err
	}
	defer cam.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := cam.Open(ctx, facing); err != nil {
		switch {
		case errors.Is(err, session.ErrPermissionDenied):
			return errors.Wrap(err, "grant access to the camera device and try again")
		case errors.Is(err, session.ErrCancelled):
			return errors.New("cancelled")
		}
		return err
	}

	img, err := cam.Snap(ctx, *portrait || conf.Portrait)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "can not create output")
	}
	if err := cam.Export(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	b := img.Bounds()
	fmt.Printf("%s (%dx%d)\n", output, b.Dx(), b.Dy())
	return nil
}
