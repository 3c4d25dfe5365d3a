package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/vearutop/lutkit"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "info":
		if err := runInfo(os.Args[2:]); err != nil {
			fail(err)
		}
	case "convert":
		if err := runConvert(os.Args[2:]); err != nil {
			fail(err)
		}
	case "apply":
		if err := runApply(os.Args[2:]); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: lutool <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  info    -in lut.bin")
	fmt.Fprintln(os.Stderr, "  convert -in lut.bin -out lut.cube [-title name]")
	fmt.Fprintln(os.Stderr, "  apply   -in photo.jpg -lut lut.bin -out out.png [-intensity 1.0] [-preview 0]")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	inPath := fs.String("in", "", "input LUT file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("-in is required")
	}
	data, err := os.ReadFile(*inPath)
	if err != nil {
		return err
	}
	l, err := lutkit.Decode(*inPath, data)
	if err != nil {
		return err
	}
	fmt.Printf("edge: %d\nentries: %d\ntable bytes: %d\n", l.Edge, l.Edge*l.Edge*l.Edge, l.SizeBytes())
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	inPath := fs.String("in", "", "input LUT file (binary, image or cube)")
	outPath := fs.String("out", "", "output .cube file")
	title := fs.String("title", "", "TITLE directive (defaults to the input base name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("-in and -out are required")
	}
	data, err := os.ReadFile(*inPath)
	if err != nil {
		return err
	}
	l, err := lutkit.Decode(*inPath, data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if *title == "" {
		base := filepath.Base(*inPath)
		*title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	var buf bytes.Buffer
	if err := lutkit.WriteCube(&buf, l, *title); err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(*outPath), buf.Bytes(), 0o644)
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	inPath := fs.String("in", "", "input image (png/jpeg/webp)")
	lutPath := fs.String("lut", "", "LUT file")
	outPath := fs.String("out", "", "output PNG")
	intensity := fs.Float64("intensity", 1.0, "blend intensity, 0..1")
	preview := fs.Uint("preview", 0, "downscale so the longest side fits this many pixels (0 = full size)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *lutPath == "" || *outPath == "" {
		return errors.New("-in, -lut and -out are required")
	}

	lutData, err := os.ReadFile(*lutPath)
	if err != nil {
		return err
	}
	l, err := lutkit.Decode(*lutPath, lutData)
	if err != nil {
		return fmt.Errorf("decode lut: %w", err)
	}

	imgData, err := os.ReadFile(*inPath)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if *preview > 0 {
		img = resize.Thumbnail(*preview, *preview, img, resize.Bilinear)
	}

	w, h, pixels := toARGB(img)
	transformed, err := lutkit.Apply(l, pixels, w, h, float32(*intensity))
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Clean(*outPath))
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, fromARGB(transformed, w, h))
}

func toARGB(img image.Image) (w, h int, pixels []uint32) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pixels = make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			pixels[y*w+x] = uint32(a>>8)<<24 | uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(bb>>8)
		}
	}
	return w, h, pixels
}

func fromARGB(pixels []uint32, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := pixels[y*w+x]
			i := out.PixOffset(x, y)
			out.Pix[i] = uint8(p >> 16)
			out.Pix[i+1] = uint8(p >> 8)
			out.Pix[i+2] = uint8(p)
			out.Pix[i+3] = uint8(p >> 24)
		}
	}
	return out
}
