package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// mockDevice is a test double for the Device subset the allocator uses.
type mockDevice struct {
	createTextureFunc     func(*hal.TextureDescriptor) (hal.Texture, error)
	createTextureViewFunc func(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error)

	texturesCreated   int
	texturesDestroyed int
	viewsCreated      int
	viewsDestroyed    int
}

func (d *mockDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.texturesCreated++
	if d.createTextureFunc != nil {
		return d.createTextureFunc(desc)
	}
	return &mockTexture{desc: *desc}, nil
}

func (d *mockDevice) DestroyTexture(hal.Texture) {
	d.texturesDestroyed++
}

func (d *mockDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.viewsCreated++
	if d.createTextureViewFunc != nil {
		return d.createTextureViewFunc(tex, desc)
	}
	return &mockView{texture: tex, label: desc.Label}, nil
}

func (d *mockDevice) DestroyTextureView(hal.TextureView) {
	d.viewsDestroyed++
}

// mockTexture is a test double for hal.Texture.
type mockTexture struct {
	desc hal.TextureDescriptor
}

func (t *mockTexture) Destroy()              {}
func (t *mockTexture) NativeHandle() uintptr { return 0 }

func (t *mockTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *mockTexture) AddPendingRef()                      {}
func (t *mockTexture) DecPendingRef()                      {}

// mockView is a test double for hal.TextureView.
type mockView struct {
	texture hal.Texture
	label   string
}

func (v *mockView) Destroy()              {}
func (v *mockView) NativeHandle() uintptr { return 0 }

func testDescriptor() framegraph.TextureDescriptor {
	return framegraph.TextureDescriptor{
		Width:  1280,
		Height: 720,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	}
}

func TestNewAllocatorNilDevice(t *testing.T) {
	_, err := NewAllocator(nil)
	if !errors.Is(err, ErrNilDevice) {
		t.Fatalf("err = %v, want ErrNilDevice", err)
	}
}

func TestCreateTextureFillsDefaults(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	id, err := a.CreateTexture("color", testDescriptor())
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero texture id")
	}

	tex, err := a.Texture(id)
	if err != nil {
		t.Fatal(err)
	}
	mt := tex.(*mockTexture)
	if mt.desc.Size.DepthOrArrayLayers != 1 {
		t.Errorf("DepthOrArrayLayers = %d, want 1", mt.desc.Size.DepthOrArrayLayers)
	}
	if mt.desc.MipLevelCount != 1 {
		t.Errorf("MipLevelCount = %d, want 1", mt.desc.MipLevelCount)
	}
	if mt.desc.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", mt.desc.SampleCount)
	}
	if mt.desc.Label != "color" {
		t.Errorf("Label = %q, want %q", mt.desc.Label, "color")
	}
}

func TestTextureRecycling(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	desc := testDescriptor()

	first, err := a.CreateTexture("frame1", desc)
	if err != nil {
		t.Fatal(err)
	}
	a.DestroyTexture(first)
	if dev.texturesDestroyed != 0 {
		t.Fatalf("texture destroyed instead of pooled")
	}

	second, err := a.CreateTexture("frame2", desc)
	if err != nil {
		t.Fatal(err)
	}
	if dev.texturesCreated != 1 {
		t.Fatalf("texturesCreated = %d, want 1 (recycled)", dev.texturesCreated)
	}
	if second == first {
		t.Fatal("recycled texture must get a fresh id")
	}

	// A different descriptor misses the pool.
	tall := desc
	tall.Height = 1080
	if _, err := a.CreateTexture("frame2.depth", tall); err != nil {
		t.Fatal(err)
	}
	if dev.texturesCreated != 2 {
		t.Fatalf("texturesCreated = %d, want 2", dev.texturesCreated)
	}
}

func TestDestroyedTextureUnresolvable(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	id, err := a.CreateTexture("color", testDescriptor())
	if err != nil {
		t.Fatal(err)
	}
	a.DestroyTexture(id)

	if _, err := a.Texture(id); !errors.Is(err, ErrUnknownTexture) {
		t.Fatalf("err = %v, want ErrUnknownTexture", err)
	}
}

func TestCreateTextureDeviceError(t *testing.T) {
	boom := errors.New("out of memory")
	dev := &mockDevice{
		createTextureFunc: func(*hal.TextureDescriptor) (hal.Texture, error) {
			return nil, boom
		},
	}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.CreateTexture("color", testDescriptor()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped device error", err)
	}
}

func TestCreateRenderTarget(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	color, err := a.CreateTexture("color", testDescriptor())
	if err != nil {
		t.Fatal(err)
	}
	depthDesc := testDescriptor()
	depthDesc.Format = gputypes.TextureFormatDepth32Float
	depth, err := a.CreateTexture("depth", depthDesc)
	if err != nil {
		t.Fatal(err)
	}

	id, err := a.CreateRenderTarget("gbuffer",
		framegraph.AttachmentColor0|framegraph.AttachmentDepth,
		1280, 720, 1,
		[4]framegraph.Attachment{{Texture: color}},
		framegraph.Attachment{Texture: depth},
		framegraph.Attachment{})
	if err != nil {
		t.Fatal(err)
	}
	if dev.viewsCreated != 2 {
		t.Fatalf("viewsCreated = %d, want 2", dev.viewsCreated)
	}

	info, err := a.Target(id)
	if err != nil {
		t.Fatal(err)
	}
	if info.Color[0] == nil || info.Depth == nil {
		t.Fatal("expected color0 and depth views")
	}
	if info.Color[1] != nil || info.Stencil != nil {
		t.Fatal("unused slots must stay nil")
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", info.Width, info.Height)
	}

	a.DestroyRenderTarget(id)
	if dev.viewsDestroyed != 2 {
		t.Fatalf("viewsDestroyed = %d, want 2", dev.viewsDestroyed)
	}
	if _, err := a.Target(id); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("err = %v, want ErrUnknownTarget", err)
	}
}

func TestCreateRenderTargetPartialFailure(t *testing.T) {
	boom := errors.New("view failed")
	dev := &mockDevice{}
	dev.createTextureViewFunc = func(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
		if dev.viewsCreated > 1 {
			return nil, boom
		}
		return &mockView{texture: tex, label: desc.Label}, nil
	}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	color, _ := a.CreateTexture("color", testDescriptor())
	depth, _ := a.CreateTexture("depth", testDescriptor())

	_, err = a.CreateRenderTarget("gbuffer",
		framegraph.AttachmentColor0|framegraph.AttachmentDepth,
		1280, 720, 1,
		[4]framegraph.Attachment{{Texture: color}},
		framegraph.Attachment{Texture: depth},
		framegraph.Attachment{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped view error", err)
	}
	if dev.viewsDestroyed != 1 {
		t.Fatalf("viewsDestroyed = %d, want 1 (created view rolled back)", dev.viewsDestroyed)
	}
}

func TestCloseDestroysPooledAndLeaked(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev)
	if err != nil {
		t.Fatal(err)
	}

	pooled, _ := a.CreateTexture("pooled", testDescriptor())
	a.DestroyTexture(pooled)

	leakedDesc := testDescriptor()
	leakedDesc.Width = 64
	if _, err := a.CreateTexture("leaked", leakedDesc); err != nil {
		t.Fatal(err)
	}

	a.Close()
	if dev.texturesDestroyed != 2 {
		t.Fatalf("texturesDestroyed = %d, want 2", dev.texturesDestroyed)
	}
}

func TestPoolEvictionDestroysTextures(t *testing.T) {
	dev := &mockDevice{}
	a, err := NewAllocator(dev, WithPoolSize(1))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	small := testDescriptor()
	small.Width = 64
	big := testDescriptor()

	id1, _ := a.CreateTexture("small", small)
	a.DestroyTexture(id1)
	id2, _ := a.CreateTexture("big", big)
	a.DestroyTexture(id2)

	// Pool capacity is one descriptor class; pooling "big" evicted
	// "small", destroying its texture.
	if dev.texturesDestroyed != 1 {
		t.Fatalf("texturesDestroyed = %d, want 1", dev.texturesDestroyed)
	}
}
