package framegraph

import (
	"testing"

	"github.com/gogpu/gputypes"
)

// Writing a freshly created resource does not bump the version: there
// is no prior content a new version would supersede.
func TestWriteFreshResourceKeepsVersion(t *testing.T) {
	fg := New(newMockAllocator())
	fg.AddPass("p", func(b *Builder) {
		r := b.CreateTexture("color", colorDesc())
		w := b.Write(r, gputypes.TextureUsageRenderAttachment)
		if w != r {
			t.Errorf("Write(fresh) = %+v, want unchanged handle %+v", w, r)
		}
	}, nil)
}

// Writing a version that already has a writer produces a new version.
func TestWriteBumpsVersionAfterWriter(t *testing.T) {
	fg := New(newMockAllocator())

	var r Resource
	fg.AddPass("first", func(b *Builder) {
		r = b.CreateTexture("color", colorDesc())
		r = b.Write(r, gputypes.TextureUsageRenderAttachment)
	}, nil)

	fg.AddPass("second", func(b *Builder) {
		w := b.Write(r, gputypes.TextureUsageRenderAttachment)
		if w.version != r.version+1 {
			t.Errorf("version = %d, want %d", w.version, r.version+1)
		}
	}, nil)
}

// Writing a version that has readers produces a new version even
// without a writer, so the readers keep observing the old content.
func TestWriteBumpsVersionAfterReader(t *testing.T) {
	fg := New(newMockAllocator())

	var r Resource
	fg.AddPass("creator", func(b *Builder) {
		r = b.CreateTexture("color", colorDesc())
	}, nil)

	fg.AddPass("reader", func(b *Builder) {
		b.Read(r, gputypes.TextureUsageTextureBinding)
	}, nil)

	fg.AddPass("writer", func(b *Builder) {
		w := b.Write(r, gputypes.TextureUsageRenderAttachment)
		if w.version != r.version+1 {
			t.Errorf("version = %d, want %d", w.version, r.version+1)
		}
	}, nil)
}

// A pass rewriting the version it already produced is a no-op; the
// usages merge.
func TestWriteSamePassMergesUsage(t *testing.T) {
	fg := New(newMockAllocator())
	fg.AddPass("p", func(b *Builder) {
		r := b.CreateTexture("color", colorDesc())
		w1 := b.Write(r, gputypes.TextureUsageRenderAttachment)
		w2 := b.Write(w1, gputypes.TextureUsageCopySrc)
		if w2 != w1 {
			t.Errorf("second Write = %+v, want %+v", w2, w1)
		}

		node := fg.slots[w2.index].current()
		want := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
		if node.writer.usage != want {
			t.Errorf("writer usage = %v, want %v", node.writer.usage, want)
		}
	}, nil)
}

// Reading the same version twice from one pass records a single edge
// with the merged usage.
func TestReadSamePassDeduplicates(t *testing.T) {
	fg := New(newMockAllocator())

	var r Resource
	fg.AddPass("creator", func(b *Builder) {
		r = b.CreateTexture("color", colorDesc())
	}, nil)

	fg.AddPass("reader", func(b *Builder) {
		b.Read(r, gputypes.TextureUsageTextureBinding)
		b.Read(r, gputypes.TextureUsageCopySrc)

		node := fg.slots[r.index].current()
		if len(node.readers) != 1 {
			t.Fatalf("readers = %d, want 1", len(node.readers))
		}
		want := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc
		if node.readers[0].usage != want {
			t.Errorf("reader usage = %v, want %v", node.readers[0].usage, want)
		}
	}, nil)
}

// Declaring a render target writes every bound attachment, so the
// returned handles carry new versions.
func TestDeclareRenderTargetBumpsAttachments(t *testing.T) {
	fg := New(newMockAllocator())

	var c Resource
	fg.AddPass("producer", func(b *Builder) {
		tex := b.CreateTexture("color", colorDesc())
		c = declareTarget(b, tex, AttachmentNone)
	}, nil)

	fg.AddPass("consumer", func(b *Builder) {
		b.Read(c, gputypes.TextureUsageRenderAttachment)
		rt := b.DeclareRenderTarget(RenderTargetDescriptor{
			Attachments: Attachments{Color: [4]Resource{c}},
			Viewport:    Viewport{Width: 64, Height: 64},
		})
		if got := rt.Attachments.Color[0].version; got != c.version+1 {
			t.Errorf("attachment version = %d, want %d", got, c.version+1)
		}
	}, nil)
}

// A superseded handle is unusable: its content was overwritten by the
// newer version.
func TestStaleHandlePanics(t *testing.T) {
	fg := New(newMockAllocator())

	var stale, fresh Resource
	fg.AddPass("producer", func(b *Builder) {
		stale = b.CreateTexture("color", colorDesc())
		fresh = declareTarget(b, stale, AttachmentNone)
	}, nil)

	fg.AddPass("overwriter", func(b *Builder) {
		b.Read(fresh, gputypes.TextureUsageRenderAttachment)
		declareTarget(b, fresh, AttachmentNone)
	}, nil)

	mustPanic(t, "stale handle", func() {
		fg.AddPass("late-reader", func(b *Builder) {
			b.Read(fresh, gputypes.TextureUsageTextureBinding)
		}, nil)
	})
	_ = stale
}

func TestUnknownHandlePanics(t *testing.T) {
	fg := New(newMockAllocator())
	mustPanic(t, "unknown resource handle", func() {
		fg.AddPass("p", func(b *Builder) {
			b.Read(Resource{index: 42}, gputypes.TextureUsageTextureBinding)
		}, nil)
	})
}

func TestZeroHandlePanics(t *testing.T) {
	fg := New(newMockAllocator())
	mustPanic(t, "unknown resource handle", func() {
		fg.AddPass("p", func(b *Builder) {
			b.Read(Resource{}, gputypes.TextureUsageTextureBinding)
		}, nil)
	})
}

// A Builder kept alive past Compile fails fast on every method.
func TestBuilderAfterCompilePanics(t *testing.T) {
	fg := New(newMockAllocator())

	var escaped *Builder
	var r Resource
	fg.AddPass("p", func(b *Builder) {
		escaped = b
		r = b.CreateTexture("color", colorDesc())
	}, nil)

	if err := fg.Compile(); err != nil {
		t.Fatal(err)
	}

	mustPanic(t, "CreateTexture after Compile", func() {
		escaped.CreateTexture("late", colorDesc())
	})
	mustPanic(t, "Read after Compile", func() {
		escaped.Read(r, gputypes.TextureUsageTextureBinding)
	})
	mustPanic(t, "Write after Compile", func() {
		escaped.Write(r, gputypes.TextureUsageRenderAttachment)
	})
	mustPanic(t, "SideEffect after Compile", func() {
		escaped.SideEffect()
	})
}
