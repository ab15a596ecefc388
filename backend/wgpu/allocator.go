// Package wgpu provides a framegraph.ResourceAllocator backed by a
// gogpu/wgpu HAL device.
package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/framegraph"
)

// Allocator errors.
var (
	// ErrNilDevice is returned when constructing an allocator without
	// a device.
	ErrNilDevice = errors.New("wgpu: device is nil")

	// ErrNoHALDevice is returned when a device provider does not
	// expose wgpu HAL types.
	ErrNoHALDevice = errors.New("wgpu: provider does not expose a HAL device")

	// ErrUnknownTexture is returned when resolving an id the
	// allocator did not issue or has already destroyed.
	ErrUnknownTexture = errors.New("wgpu: unknown texture id")

	// ErrUnknownTarget is returned when resolving a render-target id
	// the allocator did not issue or has already destroyed.
	ErrUnknownTarget = errors.New("wgpu: unknown render target id")
)

// Device is the subset of hal.Device the allocator uses. Accepting the
// narrow interface keeps tests small: a mock implements four methods
// instead of the full HAL surface.
type Device interface {
	CreateTexture(*hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(hal.Texture)
	CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(hal.TextureView)
}

// textureEntry tracks one live texture issued to the frame graph.
type textureEntry struct {
	tex  hal.Texture
	desc framegraph.TextureDescriptor
}

// TargetInfo describes a realized render target. Pass executors
// resolve a framegraph.TargetID to it through Allocator.Target and
// bind the views when recording their render pass.
type TargetInfo struct {
	Label   string
	Buffers framegraph.AttachmentFlags
	Width   uint32
	Height  uint32
	Samples uint8

	// Color, Depth and Stencil hold one view per populated slot;
	// unused slots are nil.
	Color   [4]hal.TextureView
	Depth   hal.TextureView
	Stencil hal.TextureView
}

// Allocator implements framegraph.ResourceAllocator on a wgpu HAL
// device. Freed textures are not destroyed immediately: they are
// pooled by descriptor and recycled across frames, so a steady-state
// renderer stops allocating after its first frame. The pool evicts
// least-recently-used descriptor classes.
//
// Allocator is not safe for concurrent use; the frame graph is its
// sole caller within a frame.
type Allocator struct {
	device   Device
	logger   atomic.Pointer[slog.Logger]
	nextID   atomic.Uint64
	textures map[framegraph.TextureID]*textureEntry
	targets  map[framegraph.TargetID]*TargetInfo
	pool     *lru.Cache[framegraph.TextureDescriptor, []hal.Texture]
}

// AllocatorOption configures an Allocator during creation.
type AllocatorOption func(*allocatorOptions)

type allocatorOptions struct {
	poolSize int
}

// WithPoolSize sets how many distinct texture descriptor classes the
// recycling pool retains before evicting the least recently used one.
// The default is 64.
func WithPoolSize(n int) AllocatorOption {
	return func(o *allocatorOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// NewAllocator creates an allocator over the given device.
func NewAllocator(device Device, opts ...AllocatorOption) (*Allocator, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	o := allocatorOptions{poolSize: 64}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Allocator{
		device:   device,
		textures: make(map[framegraph.TextureID]*textureEntry),
		targets:  make(map[framegraph.TargetID]*TargetInfo),
	}
	a.logger.Store(framegraph.Logger())
	a.nextID.Store(1) // 0 is invalid

	pool, err := lru.NewWithEvict(o.poolSize,
		func(_ framegraph.TextureDescriptor, list []hal.Texture) {
			for _, t := range list {
				a.device.DestroyTexture(t)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("wgpu: texture pool: %w", err)
	}
	a.pool = pool
	return a, nil
}

// NewAllocatorFromProvider creates an allocator over the HAL device of
// an application-owned GPU context, so the frame graph shares the
// device instead of opening its own. The provider must implement
// HalDevice() any returning a hal.Device (gogpu's providers do).
func NewAllocatorFromProvider(provider gpucontext.DeviceProvider, opts ...AllocatorOption) (*Allocator, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	return NewAllocator(device, opts...)
}

// CreateTexture implements framegraph.ResourceAllocator. A pooled
// texture with an identical descriptor is recycled when available.
func (a *Allocator) CreateTexture(name string, desc framegraph.TextureDescriptor) (framegraph.TextureID, error) {
	key := normalize(desc)

	var tex hal.Texture
	if list, ok := a.pool.Get(key); ok && len(list) > 0 {
		tex = list[len(list)-1]
		rest := list[:len(list)-1]
		// Store the shrunk list before dropping the key so the evict
		// callback never sees the texture we just took.
		a.pool.Add(key, rest)
		if len(rest) == 0 {
			a.pool.Remove(key)
		}
		a.slogger().Debug("texture recycled", "name", name,
			"width", key.Width, "height", key.Height, "format", key.Format)
	} else {
		var err error
		tex, err = a.device.CreateTexture(&hal.TextureDescriptor{
			Label: name,
			Size: hal.Extent3D{
				Width:              key.Width,
				Height:             key.Height,
				DepthOrArrayLayers: key.Depth,
			},
			MipLevelCount: uint32(key.Levels),
			SampleCount:   uint32(key.Samples),
			Dimension:     gputypes.TextureDimension2D,
			Format:        key.Format,
			Usage:         key.Usage,
		})
		if err != nil {
			return 0, fmt.Errorf("wgpu: create texture %q: %w", name, err)
		}
		a.slogger().Debug("texture created", "name", name,
			"width", key.Width, "height", key.Height, "format", key.Format)
	}

	id := framegraph.TextureID(a.nextID.Add(1) - 1)
	a.textures[id] = &textureEntry{tex: tex, desc: key}
	return id, nil
}

// DestroyTexture implements framegraph.ResourceAllocator. The texture
// returns to the recycling pool rather than being destroyed.
func (a *Allocator) DestroyTexture(id framegraph.TextureID) {
	e, ok := a.textures[id]
	if !ok {
		a.slogger().Warn("destroy of unknown texture id", "id", id)
		return
	}
	delete(a.textures, id)

	list, _ := a.pool.Get(e.desc)
	a.pool.Add(e.desc, append(list, e.tex))
}

// Texture resolves a texture id to its HAL handle.
func (a *Allocator) Texture(id framegraph.TextureID) (hal.Texture, error) {
	e, ok := a.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return e.tex, nil
}

// CreateRenderTarget implements framegraph.ResourceAllocator: it
// creates one render view per populated attachment slot.
func (a *Allocator) CreateRenderTarget(name string, buffers framegraph.AttachmentFlags,
	width, height uint32, samples uint8,
	color [4]framegraph.Attachment, depth, stencil framegraph.Attachment) (framegraph.TargetID, error) {

	info := &TargetInfo{
		Label:   name,
		Buffers: buffers,
		Width:   width,
		Height:  height,
		Samples: samples,
	}

	view := func(att framegraph.Attachment, slot string) (hal.TextureView, error) {
		if !att.IsValid() {
			return nil, nil
		}
		tex, err := a.Texture(att.Texture)
		if err != nil {
			return nil, err
		}
		v, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:           name + "." + slot,
			Format:          gputypes.TextureFormatUndefined, // inherit from texture
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			BaseMipLevel:    att.Level,
			MipLevelCount:   1,
			BaseArrayLayer:  att.Layer,
			ArrayLayerCount: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("wgpu: view %s of target %q: %w", slot, name, err)
		}
		return v, nil
	}

	destroyViews := func() {
		for _, v := range info.Color {
			if v != nil {
				a.device.DestroyTextureView(v)
			}
		}
		if info.Depth != nil {
			a.device.DestroyTextureView(info.Depth)
		}
		if info.Stencil != nil {
			a.device.DestroyTextureView(info.Stencil)
		}
	}

	var err error
	for i := range color {
		if info.Color[i], err = view(color[i], fmt.Sprintf("color%d", i)); err != nil {
			destroyViews()
			return 0, err
		}
	}
	if info.Depth, err = view(depth, "depth"); err != nil {
		destroyViews()
		return 0, err
	}
	if info.Stencil, err = view(stencil, "stencil"); err != nil {
		destroyViews()
		return 0, err
	}

	id := framegraph.TargetID(a.nextID.Add(1) - 1)
	a.targets[id] = info
	a.slogger().Debug("render target created", "name", name,
		"buffers", buffers, "width", width, "height", height)
	return id, nil
}

// DestroyRenderTarget implements framegraph.ResourceAllocator.
func (a *Allocator) DestroyRenderTarget(id framegraph.TargetID) {
	info, ok := a.targets[id]
	if !ok {
		a.slogger().Warn("destroy of unknown render target id", "id", id)
		return
	}
	delete(a.targets, id)
	for _, v := range info.Color {
		if v != nil {
			a.device.DestroyTextureView(v)
		}
	}
	if info.Depth != nil {
		a.device.DestroyTextureView(info.Depth)
	}
	if info.Stencil != nil {
		a.device.DestroyTextureView(info.Stencil)
	}
}

// Target resolves a render-target id to its realized views.
func (a *Allocator) Target(id framegraph.TargetID) (*TargetInfo, error) {
	info, ok := a.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	return info, nil
}

// Close destroys every pooled texture and releases anything the frame
// graph leaked. Call it when the renderer shuts down.
func (a *Allocator) Close() {
	if n := len(a.targets); n > 0 {
		a.slogger().Warn("render targets leaked at close", "count", n)
		for id := range a.targets {
			a.DestroyRenderTarget(id)
		}
	}
	if n := len(a.textures); n > 0 {
		a.slogger().Warn("textures leaked at close", "count", n)
		for id, e := range a.textures {
			a.device.DestroyTexture(e.tex)
			delete(a.textures, id)
		}
	}
	a.pool.Purge()
}

// normalize fills the descriptor defaults so equivalent descriptors
// share one pool class.
func normalize(desc framegraph.TextureDescriptor) framegraph.TextureDescriptor {
	if desc.Depth == 0 {
		desc.Depth = 1
	}
	if desc.Levels == 0 {
		desc.Levels = 1
	}
	if desc.Samples == 0 {
		desc.Samples = 1
	}
	return desc
}
