package glfwhost

import (
	_ "embed"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

//go:embed blit.wgsl
var blitWGSL string

// presenter puts CPU-composited frames on the window surface: each frame is
// written into a texture and drawn with a fullscreen triangle.
type presenter struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	pipeline *wgpu.RenderPipeline
	sampler  *wgpu.Sampler

	texture   *wgpu.Texture
	view      *wgpu.TextureView
	bindGroup *wgpu.BindGroup
	texFormat wgpu.TextureFormat
	texW      int
	texH      int
}

func newPresenter(win *glfw.Window) (*presenter, error) {
	p := &presenter{instance: wgpu.CreateInstance(nil)}
	p.surface = p.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))

	adapter, err := p.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: p.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	p.adapter = adapter

	p.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	p.queue = p.device.GetQueue()

	width, height := win.GetFramebufferSize()
	caps := p.surface.GetCapabilities(adapter)
	format := caps.Formats[0]
	p.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	p.surface.Configure(adapter, p.device, p.config)

	// Frames carry sRGB-encoded bytes. An sRGB surface re-encodes on
	// write, so the texture must decode on sample.
	p.texFormat = wgpu.TextureFormatRGBA8Unorm
	if format == wgpu.TextureFormatBGRA8UnormSrgb || format == wgpu.TextureFormatRGBA8UnormSrgb {
		p.texFormat = wgpu.TextureFormatRGBA8UnormSrgb
	}

	shader, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Blit VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: blitWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shader.Release()

	p.pipeline, err = p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p.sampler, err = p.device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// resize reconfigures the swapchain for a framebuffer of width x height.
func (p *presenter) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.config.Width = uint32(width)
	p.config.Height = uint32(height)
	p.surface.Configure(p.adapter, p.device, p.config)
}

func (p *presenter) ensureTexture(width, height int) error {
	if p.texture != nil && p.texW == width && p.texH == height {
		return nil
	}
	p.releaseTexture()

	texture, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Frame",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        p.texFormat,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return err
	}
	bindGroup, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: p.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		view.Release()
		texture.Release()
		return err
	}
	p.texture, p.view, p.bindGroup = texture, view, bindGroup
	p.texW, p.texH = width, height
	return nil
}

func (p *presenter) releaseTexture() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.view != nil {
		p.view.Release()
		p.view = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
}

func (p *presenter) present(frame *image.RGBA) error {
	b := frame.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}
	if err := p.ensureTexture(width, height); err != nil {
		return err
	}

	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	err := p.queue.WriteTexture(
		p.texture.AsImageCopy(),
		frame.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(frame.Stride),
			RowsPerImage: uint32(height),
		},
		&extent,
	)
	if err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}

	next, err := p.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer next.Release()
	target, err := next.CreateView(nil)
	if err != nil {
		return err
	}
	defer target.Release()

	encoder, err := p.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	p.queue.Submit(cmd)
	p.surface.Present()
	return nil
}

func (p *presenter) release() {
	p.releaseTexture()
	if p.sampler != nil {
		p.sampler.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.device != nil {
		p.device.Release()
	}
	if p.adapter != nil {
		p.adapter.Release()
	}
	p.surface.Release()
	p.instance.Release()
}
