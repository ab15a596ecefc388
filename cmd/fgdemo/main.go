// Command fgdemo builds a deferred-shading frame graph, compiles it and
// executes it against a tracing allocator, printing what a real backend
// would be asked to do. Pass -dot to dump the graph in graphviz format
// instead.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

func main() {
	var (
		width   = flag.Uint("width", 1280, "frame width")
		height  = flag.Uint("height", 720, "frame height")
		dot     = flag.String("dot", "", "write the graph in dot format to this file instead of executing")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	fg := buildFrame(framegraph.New(&traceAllocator{}, framegraph.WithName("demo")),
		uint32(*width), uint32(*height))

	if err := fg.Compile(); err != nil {
		log.Fatalf("compile: %v", err)
	}

	if *dot != "" {
		f, err := os.Create(*dot)
		if err != nil {
			log.Fatalf("create %s: %v", *dot, err)
		}
		defer f.Close()
		if err := fg.Graphviz(f); err != nil {
			log.Fatalf("graphviz: %v", err)
		}
		log.Printf("graph written to %s", *dot)
		return
	}

	if err := fg.Execute(nil); err != nil {
		log.Fatalf("execute: %v", err)
	}
	log.Printf("frame executed (%dx%d)", *width, *height)
}

// buildFrame declares a small deferred pipeline: a gbuffer pass, a
// lighting pass consuming it, a bloom pass whose output nothing reads
// (it gets culled), and a post pass feeding the presented image.
func buildFrame(fg *framegraph.FrameGraph, width, height uint32) *framegraph.FrameGraph {
	viewport := framegraph.Viewport{Width: width, Height: height}

	colorDesc := framegraph.TextureDescriptor{
		Width: width, Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	}
	depthDesc := colorDesc
	depthDesc.Format = gputypes.TextureFormatDepth32Float

	var albedo, normal, depth, hdr, ldr framegraph.Resource

	fg.AddPass("gbuffer", func(b *framegraph.Builder) {
		albedo = b.CreateTexture("albedo", colorDesc)
		normal = b.CreateTexture("normal", colorDesc)
		depth = b.CreateTexture("depth", depthDesc)
		rt := b.DeclareRenderTarget(framegraph.RenderTargetDescriptor{
			Attachments: framegraph.Attachments{
				Color: [4]framegraph.Resource{albedo, normal},
				Depth: depth,
			},
			Viewport:   viewport,
			ClearFlags: framegraph.AttachmentAll,
		})
		albedo = rt.Attachments.Color[0]
		normal = rt.Attachments.Color[1]
		depth = rt.Attachments.Depth
	}, func(res *framegraph.Resources, _ any) error {
		fmt.Printf("  pass %s\n", res.Pass())
		return nil
	})

	fg.AddPass("lighting", func(b *framegraph.Builder) {
		b.Read(albedo, gputypes.TextureUsageTextureBinding)
		b.Read(normal, gputypes.TextureUsageTextureBinding)
		b.Read(depth, gputypes.TextureUsageTextureBinding)
		hdr = b.CreateTexture("hdr", colorDesc)
		rt := b.DeclareRenderTarget(framegraph.RenderTargetDescriptor{
			Attachments: framegraph.Attachments{
				Color: [4]framegraph.Resource{hdr},
			},
			Viewport: viewport,
		})
		hdr = rt.Attachments.Color[0]
	}, func(res *framegraph.Resources, _ any) error {
		fmt.Printf("  pass %s\n", res.Pass())
		return nil
	})

	// Nothing consumes the bloom output, so the pass is culled.
	fg.AddPass("bloom", func(b *framegraph.Builder) {
		b.Read(hdr, gputypes.TextureUsageTextureBinding)
		bloom := b.CreateTexture("bloom", colorDesc)
		b.DeclareRenderTarget(framegraph.RenderTargetDescriptor{
			Attachments: framegraph.Attachments{
				Color: [4]framegraph.Resource{bloom},
			},
			Viewport: viewport,
		})
	}, func(res *framegraph.Resources, _ any) error {
		fmt.Printf("  pass %s (should have been culled)\n", res.Pass())
		return nil
	})

	fg.AddPass("post", func(b *framegraph.Builder) {
		b.Read(hdr, gputypes.TextureUsageTextureBinding)
		ldr = b.CreateTexture("ldr", colorDesc)
		rt := b.DeclareRenderTarget(framegraph.RenderTargetDescriptor{
			Attachments: framegraph.Attachments{
				Color: [4]framegraph.Resource{ldr},
			},
			Viewport: viewport,
		})
		ldr = rt.Attachments.Color[0]
	}, func(res *framegraph.Resources, _ any) error {
		fmt.Printf("  pass %s\n", res.Pass())
		return nil
	})

	fg.Present(ldr)
	return fg
}

// traceAllocator implements framegraph.ResourceAllocator by printing
// every backend call. It lets the demo run without a GPU; swap in
// backend/wgpu.NewAllocator to drive a real device.
type traceAllocator struct {
	nextID uint64
}

func (a *traceAllocator) id() uint64 { a.nextID++; return a.nextID }

func (a *traceAllocator) CreateTexture(name string, desc framegraph.TextureDescriptor) (framegraph.TextureID, error) {
	id := a.id()
	fmt.Printf("  create texture %q %dx%d -> %d\n", name, desc.Width, desc.Height, id)
	return framegraph.TextureID(id), nil
}

func (a *traceAllocator) DestroyTexture(id framegraph.TextureID) {
	fmt.Printf("  destroy texture %d\n", id)
}

func (a *traceAllocator) CreateRenderTarget(name string, buffers framegraph.AttachmentFlags,
	width, height uint32, samples uint8,
	color [4]framegraph.Attachment, depth, stencil framegraph.Attachment) (framegraph.TargetID, error) {
	id := a.id()
	fmt.Printf("  create render target %q [%s] %dx%d -> %d\n", name, buffers, width, height, id)
	return framegraph.TargetID(id), nil
}

func (a *traceAllocator) DestroyRenderTarget(id framegraph.TargetID) {
	fmt.Printf("  destroy render target %d\n", id)
}
