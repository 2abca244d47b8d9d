package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var conductivityEnum = []string{"pm_g1", "pm_g2", "weickert", "charbonnier"}

var poseKindEnum = []string{"world_to_camera", "camera_to_world", "camera_to_camera", "world_to_world"}

// se3Schema describes a 6-element pose vector.
func se3Schema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "number"},
		"minItems":    6,
		"maxItems":    6,
		"description": description,
	}
}

// vec3Schema describes a 3-element vector.
func vec3Schema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "number"},
		"minItems":    3,
		"maxItems":    3,
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Diffusion
		{
			Name:        "diffusion_step",
			Description: "Run one explicit nonlinear diffusion step on raw buffers. Returns the updated image and the per-pixel delta. Border pixels use a zero-flux boundary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width in pixels (at least 2)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height in pixels (at least 2)",
					},
					"image": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Row-major luminance samples, width*height values",
					},
					"conductivity": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Row-major conductivity samples, same size as image",
					},
					"step_size": map[string]interface{}{
						"type":        "number",
						"description": "Time step, must be positive",
					},
				},
				"required": []string{"width", "height", "image", "conductivity", "step_size"},
			},
		},
		{
			Name:        "diffusion_evolve_image",
			Description: "Load an image, convert it to luminance and evolve it through a schedule of diffusion steps, recomputing the conductivity before each step. Returns the evolved image as base64 PNG with statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional crop region {x1, y1, x2, y2} applied before diffusion",
					},
					"luminance": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"luma", "lightness"},
						"description": "Color reduction. Default luma",
					},
					"conductivity": map[string]interface{}{
						"type":        "string",
						"enum":        conductivityEnum,
						"description": "Diffusivity function. Default pm_g2",
					},
					"contrast": map[string]interface{}{
						"type":        "number",
						"description": "Contrast factor k. Default: estimated from the image",
					},
					"schedule": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Step sizes, one diffusion step per entry",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Output scale factor for the returned PNG. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "schedule"},
			},
		},
		{
			Name:        "conductivity_field",
			Description: "Estimate the contrast factor of an image and render its conductivity field as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"luminance": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"luma", "lightness"},
						"description": "Color reduction. Default luma",
					},
					"conductivity": map[string]interface{}{
						"type":        "string",
						"enum":        conductivityEnum,
						"description": "Diffusivity function. Default pm_g2",
					},
					"percentile": map[string]interface{}{
						"type":        "number",
						"description": "Gradient histogram percentile for the contrast factor. Default 0.7",
						"default":     0.7,
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian smoothing before differentiation. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Pose algebra
		{
			Name:        "pose_transform",
			Description: "Transform a homogeneous point with a frame-tagged pose given in se(3) form. Optionally returns the 4x4 input Jacobian and the 4x6 pose Jacobian.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        poseKindEnum,
						"description": "Frame pair of the pose",
					},
					"se3": se3Schema("Pose as [tx, ty, tz, rx, ry, rz]"),
					"point": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"minItems":    3,
						"maxItems":    4,
						"description": "Input point [x, y, z] or homogeneous [x, y, z, w]",
					},
					"jacobians": map[string]interface{}{
						"type":        "boolean",
						"description": "Include Jacobians in the result. Default false",
					},
				},
				"required": []string{"kind", "se3", "point"},
			},
		},
		{
			Name:        "pose_algebra",
			Description: "Apply a pose operation: inverse, scale (translation only), compose (first then second, frames must chain), or se3_roundtrip.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"op": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"inverse", "scale", "compose", "se3_roundtrip"},
						"description": "Operation to apply",
					},
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        poseKindEnum,
						"description": "Frame pair of the (first) pose",
					},
					"se3": se3Schema("Pose as [tx, ty, tz, rx, ry, rz]"),
					"factor": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for op=scale",
					},
					"second_kind": map[string]interface{}{
						"type":        "string",
						"enum":        poseKindEnum,
						"description": "Frame pair of the second pose for op=compose",
					},
					"second_se3": se3Schema("Second pose for op=compose"),
				},
				"required": []string{"op", "kind", "se3"},
			},
		},
		{
			Name:        "pose_residuals",
			Description: "Score correspondences against a pose. world_to_camera takes 2D-3D matches {bearing, world}; camera_to_camera takes bearing pairs {a, b}. Degenerate matches score 1.0.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"world_to_camera", "camera_to_camera"},
						"description": "Residual model",
					},
					"se3": se3Schema("Pose as [tx, ty, tz, rx, ry, rz]"),
					"world_matches": map[string]interface{}{
						"type":        "array",
						"description": "For world_to_camera: [{bearing: [x,y,z], world: [x,y,z]}]",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"bearing": vec3Schema("Unit bearing observed by the camera"),
								"world":   vec3Schema("World point"),
							},
						},
					},
					"matches": map[string]interface{}{
						"type":        "array",
						"description": "For camera_to_camera: [{a: [x,y,z], b: [x,y,z]}]",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"a": vec3Schema("Bearing in camera A"),
								"b": vec3Schema("Bearing in camera B"),
							},
						},
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Inlier threshold. Default 0.01",
						"default":     0.01,
					},
				},
				"required": []string{"kind", "se3"},
			},
		},
		{
			Name:        "pose_refine",
			Description: "Refine a world-to-camera pose from 2D-3D matches by Gauss-Newton on bearing error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"se3": se3Schema("Initial pose as [tx, ty, tz, rx, ry, rz]"),
					"world_matches": map[string]interface{}{
						"type":        "array",
						"description": "[{bearing: [x,y,z], world: [x,y,z]}], at least 3",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"bearing": vec3Schema("Unit bearing observed by the camera"),
								"world":   vec3Schema("World point"),
							},
						},
					},
					"max_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Iteration limit. Default 20",
						"default":     20,
					},
				},
				"required": []string{"se3", "world_matches"},
			},
		},
	}
}
