// Package framegraph provides a render-pass dependency graph for the
// GoGPU ecosystem.
//
// # Overview
//
// A frame graph is a per-frame directed acyclic graph of GPU passes
// and the resources they read and write. Callers declare passes and
// their resource usages; the graph then resolves execution order,
// resource lifetimes, and attachment load/store behavior (clear and
// discard flags) automatically. Passes that do not contribute to the
// presented output are culled and never execute.
//
// # Quick Start
//
//	fg := framegraph.New(allocator)
//
//	var color framegraph.Resource
//	fg.AddPass("gbuffer",
//	    func(b *framegraph.Builder) {
//	        color = b.CreateTexture("color", framegraph.TextureDescriptor{
//	            Width: 1280, Height: 720,
//	            Format: gputypes.TextureFormatRGBA8Unorm,
//	            Usage:  gputypes.TextureUsageRenderAttachment,
//	        })
//	        desc := framegraph.RenderTargetDescriptor{
//	            Viewport:   framegraph.Viewport{Width: 1280, Height: 720},
//	            ClearFlags: framegraph.AttachmentColor0,
//	        }
//	        desc.Attachments.Color[0] = color
//	        rt := b.DeclareRenderTarget(desc)
//	        color = rt.Attachments.Color[0]
//	    },
//	    func(res *framegraph.Resources, driver any) error {
//	        // record GPU commands against driver
//	        return nil
//	    })
//
//	fg.Present(color)
//	if err := fg.Compile(); err != nil { ... }
//	if err := fg.Execute(driver); err != nil { ... }
//
// # Lifecycle
//
// One FrameGraph instance covers exactly one frame of declared work:
// declare passes, Compile once, Execute once, then construct a fresh
// graph for the next frame. The pipeline is single-threaded and
// synchronous; each phase completes fully before the next begins.
//
// # Architecture
//
// The library is organized into:
//   - Public API: FrameGraph, Builder, Resource, Resources,
//     RenderTargetDescriptor, ResourceAllocator
//   - internal/graph: the reference-counted dependency graph and
//     culling algorithm
//   - backend/wgpu: a ResourceAllocator backed by a gogpu/wgpu HAL
//     device
package framegraph
