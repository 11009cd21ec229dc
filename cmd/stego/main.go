package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"stego-server/internal/artifacts"
	"stego-server/internal/carrier"
	"stego-server/internal/media"
	"stego-server/internal/stego"
	"stego-server/internal/transcoder"
	"stego-server/internal/video"
)

// exitNoTerminator is returned by decoders when the carrier held no terminator.
const exitNoTerminator = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	var err error
	code := 0
	switch args[0] {
	case "encode-image":
		err = encodeImage(args[1:], stdin, stdout, stderr)
	case "decode-image":
		code, err = decodeImage(args[1:], stdout, stderr)
	case "encode-video":
		err = encodeVideo(ctx, args[1:], stdin, stdout, stderr)
	case "decode-video":
		code, err = decodeVideo(ctx, args[1:], stdout, stderr)
	case "carriers":
		err = listCarriers(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %q\n", args[0])
		printUsage(stderr)
		return 1
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return code
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stego <command> [flags] [text]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  encode-image   Hide text in an image carrier")
	fmt.Fprintln(w, "  decode-image   Recover text from an image")
	fmt.Fprintln(w, "  encode-video   Hide text in the first frame of a video")
	fmt.Fprintln(w, "  decode-video   Recover text from a video")
	fmt.Fprintln(w, "  carriers       List image carriers")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'stego <command> -h' for command flags.")
}

func defaultCarrierDir() string {
	if dir := os.Getenv("CARRIER_DIR"); dir != "" {
		return dir
	}
	return "./carriers"
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// readPayload joins the positional arguments, or reads stdin when there are none.
func readPayload(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimRight(string(data), "\r\n")
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func outputStore(dir string) (*artifacts.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return artifacts.NewStore(dir, "/"), nil
}

func encodeImage(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("encode-image", stderr)
	carrierDir := fs.String("carriers", defaultCarrierDir(), "carrier catalog directory")
	carrierFile := fs.String("carrier", "", "use this image instead of the catalog")
	outDir := fs.String("out", ".", "output directory")
	generate := fs.Bool("generate", false, "generate the selected catalog carrier if missing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readPayload(fs.Args(), stdin)
	if err != nil {
		return err
	}
	bits, err := stego.ToBits(payload)
	if err != nil {
		return err
	}

	path := *carrierFile
	if path == "" {
		img, err := carrier.DefaultCatalog().SelectImage(len(bits))
		if err != nil {
			return err
		}
		if *generate {
			if _, err := carrier.NewCatalog(img).Ensure(*carrierDir); err != nil {
				return err
			}
		}
		path = img.Path(*carrierDir)
		fmt.Fprintf(stderr, "Using carrier %s (%d of %d bits)\n", img.Name, len(bits), img.Capacity())
	}

	store, err := outputStore(*outDir)
	if err != nil {
		return err
	}
	a, err := media.EncodeImage(store, path, payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, a.Path)
	return nil
}

func printResult(res media.Result, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, res.Text)
	if !res.Terminated {
		fmt.Fprintln(stderr, "Warning: no terminator found; output is a best-effort read")
		return exitNoTerminator
	}
	return 0
}

func decodeImage(args []string, stdout, stderr io.Writer) (int, error) {
	fs := newFlagSet("decode-image", stderr)
	if err := fs.Parse(args); err != nil {
		return 1, err
	}
	if fs.NArg() != 1 {
		return 1, errors.New("usage: stego decode-image <file>")
	}

	res, err := media.DecodeImage(fs.Arg(0))
	if err != nil {
		return 1, err
	}
	return printResult(res, stdout, stderr), nil
}

type videoFlags struct {
	ffmpeg       *string
	ffprobe      *string
	stageTimeout *time.Duration
	tempDir      *string
}

func addVideoFlags(fs *flag.FlagSet) videoFlags {
	return videoFlags{
		ffmpeg:       fs.String("ffmpeg", "ffmpeg", "ffmpeg binary"),
		ffprobe:      fs.String("ffprobe", "ffprobe", "ffprobe binary"),
		stageTimeout: fs.Duration("stage-timeout", 10*time.Minute, "bound on each ffmpeg invocation"),
		tempDir:      fs.String("temp", os.TempDir(), "scratch directory"),
	}
}

func (f videoFlags) pipeline(cfg video.Config) (*video.Pipeline, *transcoder.Transcoder) {
	tc := transcoder.New(transcoder.Options{
		FFmpegPath:   *f.ffmpeg,
		FFprobePath:  *f.ffprobe,
		StageTimeout: *f.stageTimeout,
	})
	cfg.TempDir = *f.tempDir
	return video.New(tc, cfg), tc
}

func encodeVideo(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("encode-video", stderr)
	carrierPath := fs.String("carrier", filepath.Join(defaultCarrierDir(), "carrier.mp4"), "video carrier")
	width := fs.Int("width", 1280, "carrier width")
	height := fs.Int("height", 720, "carrier height")
	outDir := fs.String("out", ".", "output directory")
	vf := addVideoFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readPayload(fs.Args(), stdin)
	if err != nil {
		return err
	}
	store, err := outputStore(*outDir)
	if err != nil {
		return err
	}

	p, tc := vf.pipeline(video.Config{
		Carrier: carrier.Video{Path: *carrierPath, Width: *width, Height: *height},
		Store:   store,
	})
	defer tc.Cleanup()

	a, err := p.Encode(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, a.Path)
	return nil
}

func decodeVideo(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	fs := newFlagSet("decode-video", stderr)
	vf := addVideoFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 1, err
	}
	if fs.NArg() != 1 {
		return 1, errors.New("usage: stego decode-video <file>")
	}

	p, tc := vf.pipeline(video.Config{})
	defer tc.Cleanup()

	res, err := p.Decode(ctx, fs.Arg(0))
	if err != nil {
		return 1, err
	}
	return printResult(res, stdout, stderr), nil
}

func listCarriers(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("carriers", stderr)
	carrierDir := fs.String("carriers", defaultCarrierDir(), "carrier catalog directory")
	generate := fs.Bool("generate", false, "generate missing carriers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog := carrier.DefaultCatalog()
	if *generate {
		n, err := catalog.Ensure(*carrierDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Generated %d carriers\n", n)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCAPACITY BITS\tMAX CHARS\tAVAILABLE")
	for _, img := range catalog.Images() {
		_, statErr := os.Stat(img.Path(*carrierDir))
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%d\t%v\n",
			img.Name, img.Width, img.Height, img.Capacity(), stego.MaxChars(img.Capacity()), statErr == nil)
	}
	return tw.Flush()
}
