package predictor

import (
	"fmt"
	"sync"

	"github.com/diseaseforecast/platform/pkg/common/config"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

var envOnce sync.Once
var envErr error

// ONNXModel serves a regressor exported to ONNX (for example with
// skl2onnx). The graph must take one float32 [1, n] input and produce one
// float32 [1, 1] output.
type ONNXModel struct {
	session    *onnxruntime.DynamicAdvancedSession
	inputName  string
	outputName string
	info       Info
}

func LoadONNX(cfg config.ModelConfig) (*ONNXModel, error) {
	envOnce.Do(func() {
		if cfg.ONNXLibrary != "" {
			onnxruntime.SetSharedLibraryPath(cfg.ONNXLibrary)
		}
		envErr = onnxruntime.InitializeEnvironment()
	})
	if envErr != nil {
		return nil, fmt.Errorf("%w: initializing onnx runtime: %w", ErrModelUnavailable, envErr)
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %w", ErrModelUnavailable, err)
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(cfg.Path,
		[]string{cfg.ONNXInput}, []string{cfg.ONNXOutput}, options)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", ErrModelUnavailable, cfg.Path, err)
	}

	return &ONNXModel{
		session:    session,
		inputName:  cfg.ONNXInput,
		outputName: cfg.ONNXOutput,
		info: Info{
			Name: cfg.ONNXModelName,
			Type: "onnx",
			Path: cfg.Path,
		},
	}, nil
}

func (m *ONNXModel) Predict(features []float64) (float64, error) {
	if m.session == nil {
		return 0, fmt.Errorf("%w: session closed", ErrModelUnavailable)
	}

	input := make([]float32, len(features))
	for i, v := range features {
		input[i] = float32(v)
	}
	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(input))), input)
	if err != nil {
		return 0, fmt.Errorf("creating input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("creating output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := m.session.Run([]onnxruntime.Value{inputTensor}, []onnxruntime.Value{outputTensor}); err != nil {
		return 0, fmt.Errorf("onnx inference failed: %w", err)
	}
	return float64(outputTensor.GetData()[0]), nil
}

func (m *ONNXModel) Info() Info {
	return m.info
}

func (m *ONNXModel) Close() error {
	if m.session != nil {
		err := m.session.Destroy()
		m.session = nil
		return err
	}
	return nil
}
