package types

// Model describes a set of upscaling weights discovered on disk.
type Model struct {
	// Stable identifier for the weights (file name without extension).
	// example: realesrgan-x4plus
	ID string `json:"id" example:"realesrgan-x4plus"`
	// Human-friendly name.
	// example: Realistic
	Name string `json:"name" example:"Realistic"`
	// Absolute path to the weights file.
	// example: /home/user/models/upscale/realesrgan-x4plus.param
	Path string `json:"path" example:"/home/user/models/upscale/realesrgan-x4plus.param"`
	// Nominal scale the weights natively produce.
	// example: 4
	Scale int `json:"scale" example:"4"`
	// Weight file format derived from the extension (pth, param, bin, onnx).
	// example: param
	Format string `json:"format,omitempty" example:"param"`
}
