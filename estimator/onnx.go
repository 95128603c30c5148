package estimator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInitMu sync.Mutex

// initRuntime loads the ONNX Runtime shared library once per process.
func initRuntime(library string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// OnnxPredictor runs a regression model exported to ONNX, one [1, W]
// float32 row per call.
type OnnxPredictor struct {
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	path        string
	width       int
	inputName   string
	outputName  string
	outputShape ort.Shape
}

// NewOnnxPredictor opens the model and checks its input width against the
// manifest width when the model declares a static one.
func NewOnnxPredictor(path string, cfg ModelConfig, width int) (*OnnxPredictor, error) {
	if width <= 0 {
		return nil, errors.New("model width must be positive")
	}
	if err := initRuntime(cfg.OrtLibrary); err != nil {
		return nil, err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("read model io info: %w", err)
	}
	in, err := pickIO(inputs, cfg.InputName, "input")
	if err != nil {
		return nil, err
	}
	out, err := pickIO(outputs, cfg.OutputName, "output")
	if err != nil {
		return nil, err
	}
	if dims := in.Dimensions; len(dims) == 2 && dims[1] > 0 && int(dims[1]) != width {
		return nil, fmt.Errorf("model input %q expects %d features, manifest has %d", in.Name, dims[1], width)
	}
	outputShape := ort.NewShape(1, 1)
	if len(out.Dimensions) == 1 {
		outputShape = ort.NewShape(1)
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{in.Name}, []string{out.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &OnnxPredictor{
		session:     session,
		path:        path,
		width:       width,
		inputName:   in.Name,
		outputName:  out.Name,
		outputShape: outputShape,
	}, nil
}

func pickIO(infos []ort.InputOutputInfo, name, what string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("model has no %s", what)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no %s named %q", what, name)
}

// Width returns the expected vector width.
func (o *OnnxPredictor) Width() int {
	return o.width
}

// Predict runs the session on a single row.
func (o *OnnxPredictor) Predict(ctx context.Context, vec FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if vec.Width() != o.width {
		return 0, fmt.Errorf("expected %d features, got %d", o.width, vec.Width())
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(o.width)), vec.Float32())
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](o.outputShape)
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return 0, errors.New("onnx session is closed")
	}
	err = o.session.Run([]ort.Value{input}, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", o.inputName, err)
	}
	data := output.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("output %q is empty", o.outputName)
	}
	return float64(data[0]), nil
}

// Close releases the ORT session.
func (o *OnnxPredictor) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}
