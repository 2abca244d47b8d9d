package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/vision-kernels-mcp/internal/diffusion"
	"github.com/ironsheep/vision-kernels-mcp/internal/estimate"
	"github.com/ironsheep/vision-kernels-mcp/internal/geometry"
	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "diffusion_step", "pose_transform").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors, and results that cannot be encoded as JSON, return a
// JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.config.Debug {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := marshalResult(result)
	if err != nil {
		if s.config.Debug {
			log.Printf("Tool %s result not encodable: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Validates input before any kernel sees it
//  4. Calls the diffusion, geometry or estimate function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Diffusion
	case "diffusion_step":
		return s.handleDiffusionStep(args)
	case "diffusion_evolve_image":
		return s.handleDiffusionEvolveImage(args)
	case "conductivity_field":
		return s.handleConductivityField(args)

	// Pose algebra
	case "pose_transform":
		return s.handlePoseTransform(args)
	case "pose_algebra":
		return s.handlePoseAlgebra(args)
	case "pose_residuals":
		return s.handlePoseResiduals(args)
	case "pose_refine":
		return s.handlePoseRefine(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
// An empty data string is omitted from the response.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// marshalResult converts a tool result to a pretty-printed JSON string.
// Results holding NaN or Inf cannot be encoded and yield an error.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("result cannot be encoded: %w", err)
	}
	return string(b), nil
}

// === Diffusion Handlers ===

type diffusionStepArgs struct {
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Image        []float32 `json:"image"`
	Conductivity []float32 `json:"conductivity"`
	StepSize     float64   `json:"step_size"`
}

type diffusionStepResult struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Image  []float32         `json:"image"`
	Delta  []float32         `json:"delta"`
	Stats  imaging.GrayStats `json:"stats"`
}

func (s *Server) handleDiffusionStep(args json.RawMessage) (interface{}, error) {
	var a diffusionStepArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width < 2 || a.Height < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", diffusion.ErrTooSmall, a.Width, a.Height)
	}
	if err := diffusion.CheckStepSize(a.StepSize); err != nil {
		return nil, err
	}

	lt, err := imaging.NewGrayImageFromData(a.Width, a.Height, a.Image)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	flow, err := imaging.NewGrayImageFromData(a.Width, a.Height, a.Conductivity)
	if err != nil {
		return nil, fmt.Errorf("conductivity: %w", err)
	}
	step := &diffusion.EvolutionStep{Lt: lt, Lflow: flow, Lstep: imaging.NewGrayImage(a.Width, a.Height)}
	if err := step.Validate(); err != nil {
		return nil, err
	}

	diffusion.CalculateStep(step, a.StepSize)

	return &diffusionStepResult{
		Width:  a.Width,
		Height: a.Height,
		Image:  lt.Pix(),
		Delta:  step.Lstep.Pix(),
		Stats:  imaging.Stats(lt),
	}, nil
}

type diffusionEvolveArgs struct {
	Path         string          `json:"path"`
	Region       *imaging.Region `json:"region,omitempty"`
	Luminance    string          `json:"luminance"`
	Conductivity string          `json:"conductivity"`
	Contrast     float64         `json:"contrast"`
	Schedule     []float64       `json:"schedule"`
	Scale        float64         `json:"scale"`
}

type evolveStepInfo struct {
	Index    int               `json:"index"`
	StepSize float64           `json:"step_size"`
	Stats    imaging.GrayStats `json:"stats"`
}

type diffusionEvolveResult struct {
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	Conductivity diffusion.Conductivity `json:"conductivity"`
	Contrast     float64                `json:"contrast"`
	Initial      imaging.GrayStats      `json:"initial"`
	Steps        []evolveStepInfo       `json:"steps"`
	Image        *imaging.EncodedImage  `json:"image"`
}

func (s *Server) handleDiffusionEvolveImage(args json.RawMessage) (interface{}, error) {
	var a diffusionEvolveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if len(a.Schedule) == 0 {
		return nil, fmt.Errorf("schedule must contain at least one step size")
	}
	mode, err := imaging.ParseLuminanceMode(a.Luminance)
	if err != nil {
		return nil, err
	}
	kind, err := diffusion.ParseConductivity(a.Conductivity)
	if err != nil {
		return nil, err
	}

	lum, err := s.loadLuminance(a.Path, a.Region, mode)
	if err != nil {
		return nil, err
	}
	lt := lum.Clone()

	step, err := diffusion.NewEvolutionStep(lt)
	if err != nil {
		return nil, err
	}

	result := &diffusionEvolveResult{
		Width:        lt.Width(),
		Height:       lt.Height(),
		Conductivity: kind,
		Initial:      imaging.Stats(lt),
	}
	k, err := diffusion.Evolve(step, a.Schedule, diffusion.EvolveOptions{
		Conductivity: kind,
		Contrast:     a.Contrast,
		OnStep: func(i int, dt float64) {
			result.Steps = append(result.Steps, evolveStepInfo{Index: i, StepSize: dt, Stats: imaging.Stats(lt)})
		},
	})
	if err != nil {
		return nil, err
	}
	result.Contrast = k

	result.Image, err = imaging.EncodePNG(lt, a.Scale)
	if err != nil {
		return nil, err
	}
	return result, nil
}

type conductivityFieldArgs struct {
	Path         string  `json:"path"`
	Luminance    string  `json:"luminance"`
	Conductivity string  `json:"conductivity"`
	Percentile   float64 `json:"percentile"`
	Sigma        float64 `json:"sigma"`
}

type conductivityFieldResult struct {
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	Conductivity diffusion.Conductivity `json:"conductivity"`
	Contrast     float64                `json:"contrast"`
	Stats        imaging.GrayStats      `json:"stats"`
	Image        *imaging.EncodedImage  `json:"image"`
}

func (s *Server) handleConductivityField(args json.RawMessage) (interface{}, error) {
	var a conductivityFieldArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Percentile == 0 {
		a.Percentile = diffusion.DefaultContrastPercentile
	}
	if a.Sigma == 0 {
		a.Sigma = diffusion.DefaultContrastSigma
	}
	mode, err := imaging.ParseLuminanceMode(a.Luminance)
	if err != nil {
		return nil, err
	}
	kind, err := diffusion.ParseConductivity(a.Conductivity)
	if err != nil {
		return nil, err
	}

	lum, err := s.loadLuminance(a.Path, nil, mode)
	if err != nil {
		return nil, err
	}
	k, err := diffusion.ContrastFactor(lum, a.Percentile, a.Sigma, diffusion.DefaultContrastBins)
	if err != nil {
		return nil, err
	}

	lx, ly := imaging.Gradient(imaging.GaussianSmooth(lum, a.Sigma))
	flow := imaging.NewGrayImage(lum.Width(), lum.Height())
	if err := diffusion.ComputeFlow(flow, lx, ly, k, kind); err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(flow, 1.0)
	if err != nil {
		return nil, err
	}
	return &conductivityFieldResult{
		Width:        flow.Width(),
		Height:       flow.Height(),
		Conductivity: kind,
		Contrast:     k,
		Stats:        imaging.Stats(flow),
		Image:        encoded,
	}, nil
}

// loadLuminance returns the luminance of the image at path after cropping to
// region and fitting within the configured maximum dimension. Whole images
// that already fit are served from the luminance cache, so the result may be
// shared and must be cloned before mutation.
func (s *Server) loadLuminance(path string, region *imaging.Region, mode imaging.LuminanceMode) (*imaging.GrayImage, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if s.config.Debug {
		log.Printf("image cache holds %d of %d images", s.cache.Len(), s.config.CacheSize)
	}
	b := img.Bounds()
	if region == nil && b.Dx() <= s.config.MaxDimension && b.Dy() <= s.config.MaxDimension && b.Dx() >= 2 && b.Dy() >= 2 {
		return s.cache.LoadLuminance(path, mode)
	}
	prepared, err := imaging.Prepare(img, region, s.config.MaxDimension)
	if err != nil {
		return nil, err
	}
	return imaging.Luminance(prepared, mode), nil
}

// === Pose Handlers ===

// posePayload is how poses travel in tool results.
type posePayload struct {
	Kind        geometry.PoseKind `json:"kind"`
	SE3         geometry.SE3      `json:"se3"`
	Homogeneous [][]float64       `json:"homogeneous"`
}

func newPosePayload[In, Out geometry.Point](kind geometry.PoseKind, p geometry.Pose[In, Out]) posePayload {
	return posePayload{Kind: kind, SE3: p.SE3(), Homogeneous: denseRows(p.Homogeneous())}
}

// denseRows converts a matrix into nested rows for JSON output.
func denseRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

func parseSE3(v []float64, name string) (geometry.SE3, error) {
	var s geometry.SE3
	if len(v) != len(s) {
		return s, fmt.Errorf("%s must have 6 components, got %d", name, len(v))
	}
	copy(s[:], v)
	return s, nil
}

func parseVec3(v []float64, name string) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("%s must have 3 components, got %d", name, len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func parseHomogeneous(v []float64) ([4]float64, error) {
	switch len(v) {
	case 3:
		return [4]float64{v[0], v[1], v[2], 1}, nil
	case 4:
		return [4]float64{v[0], v[1], v[2], v[3]}, nil
	default:
		return [4]float64{}, fmt.Errorf("point must have 3 or 4 components, got %d", len(v))
	}
}

type poseTransformArgs struct {
	Kind      string    `json:"kind"`
	SE3       []float64 `json:"se3"`
	Point     []float64 `json:"point"`
	Jacobians bool      `json:"jacobians"`
}

type poseTransformResult struct {
	Kind          geometry.PoseKind `json:"kind"`
	Point         [4]float64        `json:"point"`
	Bearing       *[3]float64       `json:"bearing,omitempty"`
	JacobianInput [][]float64       `json:"jacobian_input,omitempty"`
	JacobianSelf  [][]float64       `json:"jacobian_self,omitempty"`
}

func transformWith[In, Out geometry.Point](kind geometry.PoseKind, s geometry.SE3, pt [4]float64, jacobians bool) *poseTransformResult {
	pose := geometry.FromSE3[In, Out](s)
	res := &poseTransformResult{Kind: kind}

	var out Out
	if jacobians {
		var jIn, jSelf *mat.Dense
		out, jIn, jSelf = pose.TransformJacobians(In(pt))
		res.JacobianInput = denseRows(jIn)
		res.JacobianSelf = denseRows(jSelf)
	} else {
		out = pose.Transform(In(pt))
	}
	res.Point = [4]float64(out)
	// A point on the origin has no direction.
	if v := (r3.Vec{X: out[0], Y: out[1], Z: out[2]}); r3.Norm2(v) > 0 {
		b := geometry.Bearing(v)
		res.Bearing = &[3]float64{b.X, b.Y, b.Z}
	}
	return res
}

func (s *Server) handlePoseTransform(args json.RawMessage) (interface{}, error) {
	var a poseTransformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	kind, err := geometry.ParsePoseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	se3, err := parseSE3(a.SE3, "se3")
	if err != nil {
		return nil, err
	}
	pt, err := parseHomogeneous(a.Point)
	if err != nil {
		return nil, err
	}

	switch kind {
	case geometry.KindWorldToCamera:
		return transformWith[geometry.WorldPoint, geometry.CameraPoint](kind, se3, pt, a.Jacobians), nil
	case geometry.KindCameraToWorld:
		return transformWith[geometry.CameraPoint, geometry.WorldPoint](kind, se3, pt, a.Jacobians), nil
	case geometry.KindCameraToCamera:
		return transformWith[geometry.CameraPoint, geometry.CameraPoint](kind, se3, pt, a.Jacobians), nil
	default:
		return transformWith[geometry.WorldPoint, geometry.WorldPoint](kind, se3, pt, a.Jacobians), nil
	}
}

type poseAlgebraArgs struct {
	Op         string    `json:"op"`
	Kind       string    `json:"kind"`
	SE3        []float64 `json:"se3"`
	Factor     *float64  `json:"factor,omitempty"`
	SecondKind string    `json:"second_kind"`
	SecondSE3  []float64 `json:"second_se3"`
}

type poseAlgebraResult struct {
	Op     string      `json:"op"`
	Pose   posePayload `json:"pose"`
	MaxErr *float64    `json:"max_roundtrip_error,omitempty"`
}

// composers holds Compose for every chain of frames, keyed by
// "<first source>/<shared>/<second destination>".
var composers = map[string]func(a, b geometry.SE3) posePayload{
	"world/world/world":    composeSE3[geometry.WorldPoint, geometry.WorldPoint, geometry.WorldPoint],
	"world/world/camera":   composeSE3[geometry.WorldPoint, geometry.WorldPoint, geometry.CameraPoint],
	"world/camera/world":   composeSE3[geometry.WorldPoint, geometry.CameraPoint, geometry.WorldPoint],
	"world/camera/camera":  composeSE3[geometry.WorldPoint, geometry.CameraPoint, geometry.CameraPoint],
	"camera/world/world":   composeSE3[geometry.CameraPoint, geometry.WorldPoint, geometry.WorldPoint],
	"camera/world/camera":  composeSE3[geometry.CameraPoint, geometry.WorldPoint, geometry.CameraPoint],
	"camera/camera/world":  composeSE3[geometry.CameraPoint, geometry.CameraPoint, geometry.WorldPoint],
	"camera/camera/camera": composeSE3[geometry.CameraPoint, geometry.CameraPoint, geometry.CameraPoint],
}

func composeSE3[A, B, C geometry.Point](a, b geometry.SE3) posePayload {
	first := geometry.FromSE3[A, B](a)
	second := geometry.FromSE3[B, C](b)
	composed := geometry.Compose(first, second)
	in, out := frameOf[A](), frameOf[C]()
	return newPosePayload(geometry.KindOf(in, out), composed)
}

// frameOf returns the frame a point type belongs to.
func frameOf[P geometry.Point]() geometry.Frame {
	var p P
	if _, ok := any(p).(geometry.CameraPoint); ok {
		return geometry.FrameCamera
	}
	return geometry.FrameWorld
}

func invertSE3[In, Out geometry.Point](kind geometry.PoseKind, s geometry.SE3) posePayload {
	return newPosePayload(kind.Inverse(), geometry.FromSE3[In, Out](s).Inverse())
}

func scaleSE3[In, Out geometry.Point](kind geometry.PoseKind, s geometry.SE3, f float64) posePayload {
	return newPosePayload(kind, geometry.FromSE3[In, Out](s).Scale(f))
}

func (s *Server) handlePoseAlgebra(args json.RawMessage) (interface{}, error) {
	var a poseAlgebraArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	kind, err := geometry.ParsePoseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	se3, err := parseSE3(a.SE3, "se3")
	if err != nil {
		return nil, err
	}

	res := &poseAlgebraResult{Op: a.Op}
	switch a.Op {
	case "inverse":
		switch kind {
		case geometry.KindWorldToCamera:
			res.Pose = invertSE3[geometry.WorldPoint, geometry.CameraPoint](kind, se3)
		case geometry.KindCameraToWorld:
			res.Pose = invertSE3[geometry.CameraPoint, geometry.WorldPoint](kind, se3)
		case geometry.KindCameraToCamera:
			res.Pose = invertSE3[geometry.CameraPoint, geometry.CameraPoint](kind, se3)
		default:
			res.Pose = invertSE3[geometry.WorldPoint, geometry.WorldPoint](kind, se3)
		}

	case "scale":
		if a.Factor == nil {
			return nil, fmt.Errorf("op=scale requires factor")
		}
		switch kind {
		case geometry.KindWorldToCamera:
			res.Pose = scaleSE3[geometry.WorldPoint, geometry.CameraPoint](kind, se3, *a.Factor)
		case geometry.KindCameraToWorld:
			res.Pose = scaleSE3[geometry.CameraPoint, geometry.WorldPoint](kind, se3, *a.Factor)
		case geometry.KindCameraToCamera:
			res.Pose = scaleSE3[geometry.CameraPoint, geometry.CameraPoint](kind, se3, *a.Factor)
		default:
			res.Pose = scaleSE3[geometry.WorldPoint, geometry.WorldPoint](kind, se3, *a.Factor)
		}

	case "compose":
		secondKind, err := geometry.ParsePoseKind(a.SecondKind)
		if err != nil {
			return nil, fmt.Errorf("second_kind: %w", err)
		}
		second, err := parseSE3(a.SecondSE3, "second_se3")
		if err != nil {
			return nil, err
		}
		in, mid := kind.Frames()
		mid2, out := secondKind.Frames()
		if mid != mid2 {
			return nil, fmt.Errorf("cannot compose %s with %s: %s frame does not match %s frame", kind, secondKind, mid, mid2)
		}
		compose := composers[fmt.Sprintf("%s/%s/%s", in, mid, out)]
		res.Pose = compose(se3, second)

	case "se3_roundtrip":
		iso := geometry.IsometryFromSE3(se3)
		back := geometry.IsometryFromSE3(iso.SE3())
		var diff mat.Dense
		diff.Sub(iso.Homogeneous(), back.Homogeneous())
		var maxErr float64
		for _, v := range diff.RawMatrix().Data {
			maxErr = math.Max(maxErr, math.Abs(v))
		}
		res.MaxErr = &maxErr
		res.Pose = posePayload{Kind: kind, SE3: iso.SE3(), Homogeneous: denseRows(iso.Homogeneous())}

	default:
		return nil, fmt.Errorf("unknown op: %s", a.Op)
	}
	return res, nil
}

type worldMatchArg struct {
	Bearing []float64 `json:"bearing"`
	World   []float64 `json:"world"`
}

type featureMatchArg struct {
	A []float64 `json:"a"`
	B []float64 `json:"b"`
}

// parseBearing reads a direction vector and normalizes it.
func parseBearing(v []float64, name string) (r3.Vec, error) {
	b, err := parseVec3(v, name)
	if err != nil {
		return r3.Vec{}, err
	}
	if r3.Norm2(b) == 0 {
		return r3.Vec{}, fmt.Errorf("%s must be non-zero", name)
	}
	return geometry.Bearing(b), nil
}

func parseWorldMatches(in []worldMatchArg) ([]geometry.FeatureWorldMatch, error) {
	out := make([]geometry.FeatureWorldMatch, len(in))
	for i, m := range in {
		b, err := parseBearing(m.Bearing, fmt.Sprintf("world_matches[%d].bearing", i))
		if err != nil {
			return nil, err
		}
		w, err := parseVec3(m.World, fmt.Sprintf("world_matches[%d].world", i))
		if err != nil {
			return nil, err
		}
		out[i] = geometry.FeatureWorldMatch{Bearing: b, World: geometry.NewWorldPoint(w)}
	}
	return out, nil
}

type poseResidualsArgs struct {
	Kind         string            `json:"kind"`
	SE3          []float64         `json:"se3"`
	WorldMatches []worldMatchArg   `json:"world_matches"`
	Matches      []featureMatchArg `json:"matches"`
	Threshold    float64           `json:"threshold"`
}

type poseResidualsResult struct {
	Kind      geometry.PoseKind `json:"kind"`
	Residuals []float64         `json:"residuals"`
	Inliers   int               `json:"inliers"`
	Total     int               `json:"total"`
	Threshold float64           `json:"threshold"`
}

func (s *Server) handlePoseResiduals(args json.RawMessage) (interface{}, error) {
	var a poseResidualsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == 0 {
		a.Threshold = 0.01
	}
	kind, err := geometry.ParsePoseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	se3, err := parseSE3(a.SE3, "se3")
	if err != nil {
		return nil, err
	}

	var residuals []float64
	switch kind {
	case geometry.KindWorldToCamera:
		matches, err := parseWorldMatches(a.WorldMatches)
		if err != nil {
			return nil, err
		}
		pose := geometry.FromSE3[geometry.WorldPoint, geometry.CameraPoint](se3)
		residuals = estimate.Residuals(pose, matches, geometry.FeatureWorldMatch.Residual)
	case geometry.KindCameraToCamera:
		matches := make([]geometry.FeatureMatch, len(a.Matches))
		for i, m := range a.Matches {
			av, err := parseBearing(m.A, fmt.Sprintf("matches[%d].a", i))
			if err != nil {
				return nil, err
			}
			bv, err := parseBearing(m.B, fmt.Sprintf("matches[%d].b", i))
			if err != nil {
				return nil, err
			}
			matches[i] = geometry.FeatureMatch{A: av, B: bv}
		}
		pose := geometry.FromSE3[geometry.CameraPoint, geometry.CameraPoint](se3)
		residuals = estimate.Residuals(pose, matches, geometry.FeatureMatch.Residual)
	default:
		return nil, fmt.Errorf("no residual model for %s", kind)
	}

	return &poseResidualsResult{
		Kind:      kind,
		Residuals: residuals,
		Inliers:   estimate.CountInliers(residuals, a.Threshold),
		Total:     len(residuals),
		Threshold: a.Threshold,
	}, nil
}

type poseRefineArgs struct {
	SE3           []float64       `json:"se3"`
	WorldMatches  []worldMatchArg `json:"world_matches"`
	MaxIterations int             `json:"max_iterations"`
}

type poseRefineResult struct {
	Pose      posePayload     `json:"pose"`
	Report    estimate.Report `json:"report"`
	Residuals []float64       `json:"residuals"`
}

func (s *Server) handlePoseRefine(args json.RawMessage) (interface{}, error) {
	var a poseRefineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxIterations == 0 {
		a.MaxIterations = 20
	}
	se3, err := parseSE3(a.SE3, "se3")
	if err != nil {
		return nil, err
	}
	matches, err := parseWorldMatches(a.WorldMatches)
	if err != nil {
		return nil, err
	}

	initial := geometry.FromSE3[geometry.WorldPoint, geometry.CameraPoint](se3)
	refined, report, err := estimate.RefineWorldToCamera(initial, matches, estimate.RefineOptions{MaxIterations: a.MaxIterations})
	if err != nil {
		return nil, err
	}
	return &poseRefineResult{
		Pose:      newPosePayload(geometry.KindWorldToCamera, refined),
		Report:    report,
		Residuals: estimate.Residuals(refined, matches, geometry.FeatureWorldMatch.Residual),
	}, nil
}
