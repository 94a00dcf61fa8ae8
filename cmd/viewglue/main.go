package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"viewglue/internal/models"
	"viewglue/pkg/canvas"
	"viewglue/pkg/config"
	"viewglue/pkg/data"
	"viewglue/pkg/layer"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Configuration file (.yaml or .toml); default is the per-user config")
	outputName := flag.String("output", "plane.jpg", "Output JPEG filename")
	shapeFlag := flag.String("shape", "16,128,160", "Shape of the synthetic cube as depth,rows,cols")
	planeIdx := flag.Int("plane", -1, "Plane along the first axis to display (negative counts from the end)")
	transpose := flag.Bool("transpose", false, "Transpose the displayed plane")
	lo := flag.Float64("lo", 0.6, "Lower bound of the subset range")
	hi := flag.Float64("hi", 2.0, "Upper bound of the subset range")
	subsetColor := flag.String("color", "", "Subset overlay color (hex or name)")
	rgb := flag.Bool("rgb", false, "Show a three-channel composite instead of a single field")
	zoom := flag.Float64("zoom", 0, "Zoom factor (0 uses the configured value)")
	cmap := flag.String("cmap", "", "Colormap name (empty uses the configured value)")
	overview := flag.Bool("overview", false, "Also save a downsampled overview next to the output")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *zoom > 0 {
		cfg.Render.Zoom = *zoom
	}
	if *cmap != "" {
		cfg.Display.Cmap = *cmap
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	shape, err := parseShape(*shapeFlag)
	if err != nil {
		log.Fatalf("Invalid -shape: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Output.Verbose {
		logger = log.New(os.Stderr, "viewglue: ", log.Ltime)
	}

	fmt.Println("================================")
	fmt.Println("VIEWGLUE: LAZY LAYER RENDERING")
	fmt.Println("================================")

	startTime := time.Now()
	cube := syntheticCube(shape)
	fmt.Printf("Synthetic cube %v with fields %v (%s elements)\n",
		cube.Shape(), cube.Fields(), humanize.Comma(int64(cube.Size())))

	subset := data.NewRangeSubset("bright", cube, "flux", *lo, *hi)
	style := models.DefaultStyle
	style.Alpha = cfg.Display.SubsetAlpha
	if *subsetColor != "" {
		style.Color = *subsetColor
	}
	subset.SetStyle(style)

	mem := canvas.NewMemory()
	mem.SetLogger(logger)
	mem.SetNorm(norm.New(cfg.NormOptions()...))

	client := layer.NewClient(mem,
		layer.WithLogger(logger),
		layer.WithIncompatibleHandler(func(label string, attrs []string) {
			log.Printf("Warning: layer %s disabled, missing attributes %v", label, attrs)
		}),
	)
	if err := client.SetCmap(cfg.Display.Cmap); err != nil {
		log.Fatalf("Failed to set colormap: %v", err)
	}

	if *rgb {
		l := client.NewRGBLayer(cube.Label(), cube)
		fields := [3]string{"flux", "ridge", "gradient"}
		for _, ch := range models.Channels {
			if err := l.SetChannel(ch, fields[ch]); err != nil {
				log.Fatalf("Failed to assign %s channel: %v", ch, err)
			}
		}
		if err := l.SetContrastChannel(cfg.Channel()); err != nil {
			log.Fatalf("Failed to set contrast channel: %v", err)
		}
		l.SetNorm(cfg.NormOptions()...)
	} else {
		client.NewImageLayer(cube.Label(), cube)
	}
	sub := client.NewSubsetLayer(subset)

	sel := layer.Selection{Field: "flux", View: view.View{view.Index(*planeIdx)}}
	if err := client.Update(sel, *transpose); err != nil {
		log.Fatalf("Failed to update layers: %v", err)
	}
	if !sub.Enabled() {
		fmt.Println("Subset overlay is disabled")
	}

	img, err := mem.Render(cfg.Render.Zoom)
	if err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	if err := canvas.SaveJPEG(img, *outputName, cfg.Render.Quality); err != nil {
		log.Fatalf("Failed to save %s: %v", *outputName, err)
	}

	b := img.Bounds()
	fmt.Printf("\nRendered %dx%d raster in %s\n", b.Dx(), b.Dy(), time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Output saved to: %s (%s)\n", *outputName, fileSize(*outputName))

	if *overview {
		preview, err := mem.RenderOverview()
		if err != nil {
			log.Fatalf("Overview failed: %v", err)
		}
		name := strings.TrimSuffix(*outputName, ".jpg") + "_overview.jpg"
		if err := canvas.SaveJPEG(preview, name, cfg.Render.Quality); err != nil {
			log.Fatalf("Failed to save %s: %v", name, err)
		}
		fmt.Printf("Overview saved to: %s (%s)\n", name, fileSize(name))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return config.DefaultConfig(), nil
		}
		path = p
	}
	return config.LoadConfig(path)
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected depth,rows,cols, got %q", s)
	}
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		shape[i] = n
	}
	return shape, nil
}

// syntheticCube builds a cube with a drifting Gaussian blob in "flux", a
// diagonal ridge in "ridge" and a horizontal ramp offset by the plane
// index in "gradient".
func syntheticCube(shape []int) *data.Cube {
	depth, rows, cols := shape[0], shape[1], shape[2]
	cube := data.NewCube("synthetic", depth, rows, cols)

	flux := make([]float64, 0, cube.Size())
	ridge := make([]float64, 0, cube.Size())
	gradient := make([]float64, 0, cube.Size())
	sigma := float64(min(rows, cols)) / 6
	for z := 0; z < depth; z++ {
		cx := float64(cols) * (0.3 + 0.4*float64(z)/float64(max(depth-1, 1)))
		cy := float64(rows) / 2
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				dx, dy := float64(x)-cx, float64(y)-cy
				flux = append(flux, 2*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
				ridge = append(ridge, math.Abs(math.Sin(float64(x+y)/sigma)))
				gradient = append(gradient, float64(z)+float64(x)/float64(cols))
			}
		}
	}

	for _, f := range []struct {
		name   string
		values []float64
	}{{"flux", flux}, {"ridge", ridge}, {"gradient", gradient}} {
		if err := cube.AddField(f.name, f.values); err != nil {
			log.Fatalf("Failed to build synthetic cube: %v", err)
		}
	}
	return cube
}

func fileSize(name string) string {
	info, err := os.Stat(name)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(info.Size()))
}
