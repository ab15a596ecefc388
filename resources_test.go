package framegraph

import (
	"errors"
	"testing"
)

func TestResourcesDescriptor(t *testing.T) {
	fg := New(newMockAllocator())

	desc := colorDesc()
	var out Resource
	fg.AddPass("p", func(b *Builder) {
		tex := b.CreateTexture("color", desc)
		out = declareTarget(b, tex, AttachmentNone)
	}, func(res *Resources, _ any) error {
		got, err := res.Descriptor(out)
		if err != nil {
			return err
		}
		if got != desc {
			t.Errorf("Descriptor = %+v, want %+v", got, desc)
		}
		return nil
	})
	fg.Present(out)

	if err := fg.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := fg.Execute(nil); err != nil {
		t.Fatal(err)
	}
}

func TestResourcesUnknownHandle(t *testing.T) {
	fg := New(newMockAllocator())

	var out Resource
	fg.AddPass("p", func(b *Builder) {
		tex := b.CreateTexture("color", colorDesc())
		out = declareTarget(b, tex, AttachmentNone)
	}, func(res *Resources, _ any) error {
		if _, err := res.Texture(Resource{index: 99}); err == nil {
			t.Error("expected error for unknown handle")
		}
		if _, err := res.Descriptor(Resource{}); err == nil {
			t.Error("expected error for zero handle")
		}
		return nil
	})
	fg.Present(out)

	if err := fg.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := fg.Execute(nil); err != nil {
		t.Fatal(err)
	}
}

// A resource whose users were all culled is never realized; resolving
// it from an unrelated pass reports ErrNotRealized.
func TestResourcesNotRealized(t *testing.T) {
	fg := New(newMockAllocator())

	var orphan, out Resource
	fg.AddPass("culled", func(b *Builder) {
		tex := b.CreateTexture("orphan", colorDesc())
		orphan = declareTarget(b, tex, AttachmentNone)
	}, nil)

	fg.AddPass("live", func(b *Builder) {
		tex := b.CreateTexture("color", colorDesc())
		out = declareTarget(b, tex, AttachmentNone)
	}, func(res *Resources, _ any) error {
		if _, err := res.Texture(orphan); !errors.Is(err, ErrNotRealized) {
			t.Errorf("err = %v, want ErrNotRealized", err)
		}
		return nil
	})
	fg.Present(out)

	if err := fg.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := fg.Execute(nil); err != nil {
		t.Fatal(err)
	}
}

func TestRenderTargetUnknownID(t *testing.T) {
	fg := New(newMockAllocator())

	var out Resource
	fg.AddPass("p", func(b *Builder) {
		tex := b.CreateTexture("color", colorDesc())
		out = declareTarget(b, tex, AttachmentNone)
	}, func(res *Resources, _ any) error {
		if _, err := res.RenderTarget(RenderTargetID(7)); err == nil {
			t.Error("expected error for unknown render target id")
		}
		return nil
	})
	fg.Present(out)

	if err := fg.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := fg.Execute(nil); err != nil {
		t.Fatal(err)
	}
}
