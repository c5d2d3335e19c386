package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Accepts the subset of realesrgan-ncnn-vulkan flags the subprocess adapter
// passes and upscales with nearest neighbour.
func main() {
	var in, out, modelsDir, name, format string
	var scale, tile, gpu int
	flag.StringVar(&in, "i", "", "input path")
	flag.StringVar(&out, "o", "", "output path")
	flag.IntVar(&scale, "s", 4, "scale")
	flag.StringVar(&modelsDir, "m", "", "models dir")
	flag.StringVar(&name, "n", "", "model name")
	flag.IntVar(&tile, "t", 0, "tile size")
	flag.IntVar(&gpu, "g", 0, "gpu id")
	flag.StringVar(&format, "f", "png", "output format")
	flag.Parse()

	if name == "fail" {
		fmt.Fprintln(os.Stderr, "vkCreateInstance failed")
		os.Exit(3)
	}
	f, err := os.Open(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	src, err := png.Decode(f)
	f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	o, err := os.Create(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := png.Encode(o, dst); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	o.Close()
}
