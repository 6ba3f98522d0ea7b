package vulkan

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/scene"
)

const vertexStride = 32

// vulkanAllocator backs one renderer command allocator with a dedicated pool,
// so resetting a ring slot never disturbs a slot still in flight.
type vulkanAllocator struct {
	name          string
	pool          vk.CommandPool
	commandBuffer *VulkanCommandBuffer
}

// frameState is the recording state between BeginFrame and EndFrame.
type frameState struct {
	active        bool
	commandBuffer *VulkanCommandBuffer
	imageIndex    uint32
	pipeline      *VulkanPipeline

	passBuffer     renderer.BufferHandle
	objectBuffer   renderer.BufferHandle
	objectOffset   uint64
	materialBuffer renderer.BufferHandle
	materialOffset uint64
	textureIndex   int

	boundSet vk.DescriptorSet
}

// VulkanRenderer implements renderer.Backend on a single graphics queue. All
// entry points are frame-thread only; the queue timeline is tracked by a
// frameFence so completion can be polled without blocking.
type VulkanRenderer struct {
	platform *platform.Platform
	context  *VulkanContext
	debug    bool

	// AssetsDir is where compiled shaders are looked up. Defaults to "assets".
	AssetsDir string

	fence *frameFence
	// lastSubmitFence is the per-submission fence of the most recent
	// EndFrame, consumed by the following FenceSignal.
	lastSubmitFence *VulkanFence

	buffers    map[renderer.BufferHandle]*VulkanBuffer
	nextBuffer renderer.BufferHandle

	vertexBuffer *VulkanBuffer
	indexBuffer  *VulkanBuffer

	textures    map[renderer.TextureHandle]*VulkanTexture
	nextTexture renderer.TextureHandle
	table       *vulkanDescriptorTable

	pipelines    map[renderer.PipelineHandle]*VulkanPipeline
	nextPipeline renderer.PipelineHandle
	shaderStages map[string]*VulkanShaderStage

	allocators    map[renderer.AllocatorHandle]*vulkanAllocator
	nextAllocator renderer.AllocatorHandle

	imageAvailableSemaphores []vk.Semaphore
	queueCompleteSemaphores  []vk.Semaphore
	syncIndex                int

	frame frameState
}

func New(p *platform.Platform) *VulkanRenderer {
	return &VulkanRenderer{
		platform:  p,
		context:   &VulkanContext{},
		debug:     true,
		AssetsDir: "assets",

		buffers:      make(map[renderer.BufferHandle]*VulkanBuffer),
		textures:     make(map[renderer.TextureHandle]*VulkanTexture),
		pipelines:    make(map[renderer.PipelineHandle]*VulkanPipeline),
		shaderStages: make(map[string]*VulkanShaderStage),
		allocators:   make(map[renderer.AllocatorHandle]*vulkanAllocator),
	}
}

func (vr *VulkanRenderer) Initialize(appName string, width, height uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vulkan: %s", err)
		return err
	}

	vr.context.Allocator = nil
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height
	vr.context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}
	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	validationLayers := []string{}
	if vr.debug {
		validationLayers = vr.availableValidationLayers()
	}
	createInfo.EnabledLayerCount = uint32(len(validationLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(validationLayers)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed to create the Vulkan instance: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan instance created.")

	if vr.debug && len(validationLayers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", VulkanResultString(res))
		} else {
			vr.context.debugMessenger = dbg
		}
	}

	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return err
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	rp, err := RenderpassCreate(
		vr.context,
		0, 0, float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight),
		0.0, 0.0, 0.2, 1.0,
		1.0,
		0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}
	if err := vr.createSyncObjects(); err != nil {
		return err
	}

	vr.fence = newFrameFence(vr.context)

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) availableValidationLayers() []string {
	required := []string{"VK_LAYER_KHRONOS_validation"}

	var availableCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, nil); res != vk.Success {
		return nil
	}
	available := make([]vk.LayerProperties, availableCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, available); res != vk.Success {
		return nil
	}

	for _, want := range required {
		found := false
		for j := range available {
			available[j].Deref()
			end := FindFirstZeroInByteArray(available[j].LayerName[:])
			if want == string(available[j].LayerName[:end]) {
				found = true
				break
			}
		}
		if !found {
			core.LogWarn("validation layer %s is not available, continuing without it", want)
			return nil
		}
	}
	return required
}

func (vr *VulkanRenderer) createSyncObjects() error {
	count := int(vr.context.Swapchain.ImageCount)
	vr.imageAvailableSemaphores = make([]vk.Semaphore, count)
	vr.queueCompleteSemaphores = make([]vk.Semaphore, count)
	for i := 0; i < count; i++ {
		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.imageAvailableSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create image available semaphore")
			core.LogError(err.Error())
			return err
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.queueCompleteSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create queue complete semaphore")
			core.LogError(err.Error())
			return err
		}
	}
	vr.syncIndex = 0
	return nil
}

func (vr *VulkanRenderer) destroySyncObjects() {
	for _, s := range vr.imageAvailableSemaphores {
		if s != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, s, vr.context.Allocator)
		}
	}
	for _, s := range vr.queueCompleteSemaphores {
		if s != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, s, vr.context.Allocator)
		}
	}
	vr.imageAvailableSemaphores = nil
	vr.queueCompleteSemaphores = nil
}

func (vr *VulkanRenderer) regenerateFramebuffers() error {
	swapchain := vr.context.Swapchain
	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := 0; i < int(swapchain.ImageCount); i++ {
		attachments := []vk.ImageView{
			swapchain.Views[i],
			swapchain.DepthAttachment.View,
		}
		fb, err := FramebufferCreate(vr.context, vr.context.MainRenderpass, vr.context.FramebufferWidth, vr.context.FramebufferHeight, attachments)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = fb
	}
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	vr.destroySyncObjects()
	if vr.fence != nil {
		vr.fence.destroy()
		vr.fence = nil
	}

	for _, allocator := range vr.allocators {
		allocator.commandBuffer.Free(vr.context, allocator.pool)
		vk.DestroyCommandPool(vr.context.Device.LogicalDevice, allocator.pool, vr.context.Allocator)
	}
	vr.allocators = nil

	for _, pipeline := range vr.pipelines {
		pipeline.Destroy(vr.context)
	}
	vr.pipelines = nil
	for _, stage := range vr.shaderStages {
		stage.Destroy(vr.context)
	}
	vr.shaderStages = nil

	if vr.table != nil {
		vr.table.destroy(vr.context)
		vr.table = nil
	}
	for _, texture := range vr.textures {
		texture.Destroy(vr.context)
	}
	vr.textures = nil

	for _, buffer := range vr.buffers {
		buffer.Destroy(vr.context)
	}
	vr.buffers = nil
	if vr.vertexBuffer != nil {
		vr.vertexBuffer.Destroy(vr.context)
		vr.vertexBuffer = nil
	}
	if vr.indexBuffer != nil {
		vr.indexBuffer.Destroy(vr.context)
		vr.indexBuffer = nil
	}

	if vr.context.MainRenderpass != nil {
		vr.context.MainRenderpass.RenderpassDestroy(vr.context)
		vr.context.MainRenderpass = nil
	}
	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
		vr.context.Swapchain = nil
	}

	DeviceDestroy(vr.context)

	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
	}
	vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)

	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

// Resized recreates the swapchain and framebuffers. The renderer flushes the
// queue before calling this, so waiting idle here is cheap.
func (vr *VulkanRenderer) Resized(width, height uint32) error {
	if vr.context.RecreatingSwapchain {
		core.LogDebug("Resized called while already recreating the swapchain.")
		return nil
	}
	vr.context.RecreatingSwapchain = true
	defer func() { vr.context.RecreatingSwapchain = false }()

	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	if err := DeviceQuerySwapchainSupport(vr.context.Device.PhysicalDevice, vr.context.Surface, &vr.context.Device.SwapchainSupport); err != nil {
		return err
	}
	DeviceDetectDepthFormat(vr.context.Device)

	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	vr.context.MainRenderpass.X = 0
	vr.context.MainRenderpass.Y = 0
	vr.context.MainRenderpass.W = float32(width)
	vr.context.MainRenderpass.H = float32(height)

	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	vr.destroySyncObjects()
	if err := vr.createSyncObjects(); err != nil {
		return err
	}

	core.LogInfo("vulkan backend resized to %dx%d", width, height)
	return nil
}

func (vr *VulkanRenderer) CreateUploadBuffer(name string, size uint64) (renderer.BufferHandle, error) {
	buffer, err := BufferCreate(vr.context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return 0, err
	}
	vr.nextBuffer++
	handle := vr.nextBuffer
	vr.buffers[handle] = buffer
	core.LogDebug("upload buffer `%s` created: %d bytes", name, size)
	return handle, nil
}

func (vr *VulkanRenderer) DestroyBuffer(handle renderer.BufferHandle) error {
	buffer, ok := vr.buffers[handle]
	if !ok {
		err := fmt.Errorf("unknown buffer handle %d", handle)
		core.LogError(err.Error())
		return err
	}
	if vr.table != nil {
		vr.table.invalidate(handle)
	}
	buffer.Destroy(vr.context)
	delete(vr.buffers, handle)
	return nil
}

func (vr *VulkanRenderer) WriteBuffer(handle renderer.BufferHandle, offset uint64, data []byte) error {
	buffer, ok := vr.buffers[handle]
	if !ok {
		err := fmt.Errorf("unknown buffer handle %d", handle)
		core.LogError(err.Error())
		return err
	}
	return buffer.LoadData(offset, data)
}

func (vr *VulkanRenderer) ReadBuffer(handle renderer.BufferHandle, offset uint64, out []byte) error {
	buffer, ok := vr.buffers[handle]
	if !ok {
		err := fmt.Errorf("unknown buffer handle %d", handle)
		core.LogError(err.Error())
		return err
	}
	return buffer.ReadData(offset, out)
}

func (vr *VulkanRenderer) CreateGeometry(vertices []math.Vertex, indices []uint32) error {
	if len(vertices) == 0 || len(indices) == 0 {
		err := fmt.Errorf("cannot upload empty geometry")
		core.LogError(err.Error())
		return err
	}

	vertexData := encodeVertices(vertices)
	indexData := encodeIndices(indices)

	vertexBuffer, err := BufferCreate(vr.context,
		uint64(len(vertexData)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}
	indexBuffer, err := BufferCreate(vr.context,
		uint64(len(indexData)),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}

	pool := vr.context.Device.GraphicsCommandPool
	queue := vr.context.Device.GraphicsQueue
	if err := UploadViaStaging(vr.context, pool, queue, vertexBuffer, vertexData); err != nil {
		return err
	}
	if err := UploadViaStaging(vr.context, pool, queue, indexBuffer, indexData); err != nil {
		return err
	}

	vr.vertexBuffer = vertexBuffer
	vr.indexBuffer = indexBuffer
	core.LogInfo("scene geometry uploaded: %d vertices, %d indices", len(vertices), len(indices))
	return nil
}

func (vr *VulkanRenderer) CreateTexture(texture *scene.Texture) (renderer.TextureHandle, error) {
	vt, err := TextureCreate(vr.context, vr.context.Device.GraphicsCommandPool, vr.context.Device.GraphicsQueue, texture)
	if err != nil {
		return 0, err
	}
	vr.nextTexture++
	handle := vr.nextTexture
	vr.textures[handle] = vt
	return handle, nil
}

func (vr *VulkanRenderer) BuildDescriptorTable(handles []renderer.TextureHandle) error {
	textures := make([]*VulkanTexture, 0, len(handles))
	for _, handle := range handles {
		texture, ok := vr.textures[handle]
		if !ok {
			err := fmt.Errorf("unknown texture handle %d", handle)
			core.LogError(err.Error())
			return err
		}
		textures = append(textures, texture)
	}

	table, err := newDescriptorTable(vr.context, textures)
	if err != nil {
		return err
	}
	vr.table = table
	core.LogInfo("descriptor table built with %d textures", len(textures))
	return nil
}

func (vr *VulkanRenderer) CreatePipeline(config renderer.PipelineConfig) (renderer.PipelineHandle, error) {
	if vr.table == nil {
		err := fmt.Errorf("descriptor table must be built before pipelines")
		core.LogError(err.Error())
		return 0, err
	}

	vertexStage, err := vr.shaderStage(config.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return 0, err
	}
	fragmentStage, err := vr.shaderStage(config.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return 0, err
	}

	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 24},
	}

	pipeline, err := NewGraphicsPipeline(vr.context, &vulkanPipelineOptions{
		Renderpass:           vr.context.MainRenderpass,
		Stride:               vertexStride,
		Attributes:           attributes,
		DescriptorSetLayouts: []vk.DescriptorSetLayout{vr.table.layout},
		Stages: []vk.PipelineShaderStageCreateInfo{
			vertexStage.ShaderStageCreateInfo,
			fragmentStage.ShaderStageCreateInfo,
		},
		Viewport: vk.Viewport{
			X:        0,
			Y:        float32(vr.context.FramebufferHeight),
			Width:    float32(vr.context.FramebufferWidth),
			Height:   -float32(vr.context.FramebufferHeight),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: vr.context.FramebufferWidth, Height: vr.context.FramebufferHeight},
		},
		PushConstantSize: 4,
		Config:           config,
	})
	if err != nil {
		return 0, err
	}

	vr.nextPipeline++
	handle := vr.nextPipeline
	vr.pipelines[handle] = pipeline
	return handle, nil
}

func (vr *VulkanRenderer) shaderStage(name string, flag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if stage, ok := vr.shaderStages[name]; ok {
		return stage, nil
	}
	stage, err := NewShaderStage(vr.context, vr.AssetsDir, name, flag)
	if err != nil {
		return nil, err
	}
	vr.shaderStages[name] = stage
	return stage, nil
}

func (vr *VulkanRenderer) CreateCommandAllocator(name string) (renderer.AllocatorHandle, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(vr.context.Device.GraphicsQueueIndex),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(vr.context.Device.LogicalDevice, &poolCreateInfo, vr.context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create command pool for allocator `%s`: %s", name, VulkanResultString(res))
		core.LogError(err.Error())
		return 0, err
	}

	cb, err := NewVulkanCommandBuffer(vr.context, pool, true)
	if err != nil {
		vk.DestroyCommandPool(vr.context.Device.LogicalDevice, pool, vr.context.Allocator)
		return 0, err
	}

	vr.nextAllocator++
	handle := vr.nextAllocator
	vr.allocators[handle] = &vulkanAllocator{
		name:          name,
		pool:          pool,
		commandBuffer: cb,
	}
	return handle, nil
}

func (vr *VulkanRenderer) ResetCommandAllocator(handle renderer.AllocatorHandle) error {
	allocator, ok := vr.allocators[handle]
	if !ok {
		err := fmt.Errorf("unknown allocator handle %d", handle)
		core.LogError(err.Error())
		return err
	}
	if res := vk.ResetCommandPool(vr.context.Device.LogicalDevice, allocator.pool, 0); res != vk.Success {
		err := fmt.Errorf("failed to reset command pool `%s`: %s", allocator.name, VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	allocator.commandBuffer.Reset()
	return nil
}

func (vr *VulkanRenderer) BeginFrame(allocator renderer.AllocatorHandle, passConstants renderer.BufferHandle) error {
	alloc, ok := vr.allocators[allocator]
	if !ok {
		err := fmt.Errorf("unknown allocator handle %d", allocator)
		core.LogError(err.Error())
		return err
	}

	imageIndex, err := vr.context.Swapchain.SwapchainAcquireNextImageIndex(
		vr.context, gomath.MaxUint64, vr.imageAvailableSemaphores[vr.syncIndex], vk.NullFence)
	if err != nil {
		// Out-of-date swapchains surface through the resize event path; skip
		// this frame.
		return err
	}
	vr.context.ImageIndex = imageIndex

	commandBuffer := alloc.commandBuffer
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}

	viewport := vk.Viewport{
		X:        0,
		Y:        float32(vr.context.FramebufferHeight),
		Width:    float32(vr.context.FramebufferWidth),
		Height:   -float32(vr.context.FramebufferHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  vr.context.FramebufferWidth,
			Height: vr.context.FramebufferHeight,
		},
	}
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.context.MainRenderpass.W = float32(vr.context.FramebufferWidth)
	vr.context.MainRenderpass.H = float32(vr.context.FramebufferHeight)
	vr.context.MainRenderpass.RenderpassBegin(commandBuffer, vr.context.Swapchain.Framebuffers[imageIndex].Handle)

	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vr.vertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, vr.indexBuffer.Handle, 0, vk.IndexTypeUint32)

	vr.frame = frameState{
		active:        true,
		commandBuffer: commandBuffer,
		imageIndex:    imageIndex,
		passBuffer:    passConstants,
		textureIndex:  -1,
	}
	return nil
}

func (vr *VulkanRenderer) SetPipeline(handle renderer.PipelineHandle) error {
	pipeline, ok := vr.pipelines[handle]
	if !ok {
		err := fmt.Errorf("unknown pipeline handle %d", handle)
		core.LogError(err.Error())
		return err
	}
	if !vr.frame.active {
		err := fmt.Errorf("SetPipeline called outside a frame")
		core.LogError(err.Error())
		return err
	}
	pipeline.Bind(vr.frame.commandBuffer)
	vr.frame.pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) BindObjectConstants(buffer renderer.BufferHandle, offset uint64) {
	vr.frame.objectBuffer = buffer
	vr.frame.objectOffset = offset
}

func (vr *VulkanRenderer) BindMaterialConstants(buffer renderer.BufferHandle, offset uint64) {
	vr.frame.materialBuffer = buffer
	vr.frame.materialOffset = offset
}

func (vr *VulkanRenderer) BindTexture(tableIndex int) {
	vr.frame.textureIndex = tableIndex
}

func (vr *VulkanRenderer) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	if !vr.frame.active || vr.frame.pipeline == nil {
		core.LogError("DrawIndexed called without an active frame and pipeline")
		return
	}

	key := descriptorKey{
		pass:     vr.frame.passBuffer,
		object:   vr.frame.objectBuffer,
		material: vr.frame.materialBuffer,
	}
	passBuffer := vr.buffers[key.pass]
	objectBuffer := vr.buffers[key.object]
	materialBuffer := vr.buffers[key.material]
	if passBuffer == nil || objectBuffer == nil || materialBuffer == nil {
		core.LogError("DrawIndexed called with unbound constant buffers")
		return
	}

	set, err := vr.table.set(vr.context, key, passBuffer, objectBuffer, materialBuffer)
	if err != nil {
		return
	}

	commandBuffer := vr.frame.commandBuffer
	dynamicOffsets := []uint32{
		0,
		uint32(vr.frame.objectOffset),
		uint32(vr.frame.materialOffset),
	}
	vk.CmdBindDescriptorSets(commandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		vr.frame.pipeline.PipelineLayout,
		0, 1, []vk.DescriptorSet{set},
		uint32(len(dynamicOffsets)), dynamicOffsets)
	vr.frame.boundSet = set

	textureIndex := uint32(0)
	if vr.frame.textureIndex >= 0 {
		textureIndex = uint32(vr.frame.textureIndex)
	}
	pushData := make([]byte, 4)
	binary.LittleEndian.PutUint32(pushData, textureIndex)
	vk.CmdPushConstants(commandBuffer.Handle,
		vr.frame.pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		0, 4, unsafe.Pointer(&pushData[0]))

	vk.CmdDrawIndexed(commandBuffer.Handle, indexCount, 1, startIndex, baseVertex, 0)
}

func (vr *VulkanRenderer) EndFrame() error {
	if !vr.frame.active {
		err := fmt.Errorf("EndFrame called outside a frame")
		core.LogError(err.Error())
		return err
	}
	commandBuffer := vr.frame.commandBuffer
	vr.frame.active = false

	vr.context.MainRenderpass.RenderpassEnd(commandBuffer)
	if err := commandBuffer.End(); err != nil {
		return err
	}

	submitFence, err := vr.fence.next()
	if err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.queueCompleteSemaphores[vr.syncIndex]},
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.imageAvailableSemaphores[vr.syncIndex]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
	}
	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, submitFence.Handle); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	commandBuffer.UpdateSubmitted()
	vr.lastSubmitFence = submitFence

	if err := vr.context.Swapchain.SwapchainPresent(
		vr.context,
		vr.context.Device.PresentQueue,
		vr.queueCompleteSemaphores[vr.syncIndex],
		vr.frame.imageIndex); err != nil {
		// Out-of-date at present time is recovered by the resize path; the
		// frame's work is already submitted.
		core.LogWarn("present failed: %s", err)
	}

	vr.syncIndex = (vr.syncIndex + 1) % len(vr.imageAvailableSemaphores)
	return nil
}

func (vr *VulkanRenderer) FenceSignal(value uint64) error {
	fence := vr.lastSubmitFence
	vr.lastSubmitFence = nil
	if fence == nil {
		// No submission to attach to: signal through an empty submit so the
		// timeline still advances on the queue.
		var err error
		fence, err = vr.fence.next()
		if err != nil {
			return err
		}
		if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 0, nil, fence.Handle); res != vk.Success {
			err := fmt.Errorf("empty queue submit failed: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
	}
	return vr.fence.track(value, fence)
}

func (vr *VulkanRenderer) FenceCompletedValue() uint64 {
	return vr.fence.completedValue()
}

func (vr *VulkanRenderer) FenceWait(value uint64) error {
	return vr.fence.wait(value)
}

func encodeVertices(vertices []math.Vertex) []byte {
	out := make([]byte, len(vertices)*vertexStride)
	offset := 0
	putFloat := func(f float32) {
		binary.LittleEndian.PutUint32(out[offset:], math.Float32bits(f))
		offset += 4
	}
	for _, v := range vertices {
		putFloat(v.Position.X)
		putFloat(v.Position.Y)
		putFloat(v.Position.Z)
		putFloat(v.Normal.X)
		putFloat(v.Normal.Y)
		putFloat(v.Normal.Z)
		putFloat(v.Texcoord.X)
		putFloat(v.Texcoord.Y)
	}
	return out
}

func encodeIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, index := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], index)
	}
	return out
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] %s", pLayerPrefix, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] %s", pLayerPrefix, pMessage)
	default:
		core.LogDebug("[%s] %s", pLayerPrefix, pMessage)
	}
	return vk.False
}
