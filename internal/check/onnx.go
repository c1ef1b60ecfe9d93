// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package check

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates an ONNX model and describes its single input and output.
type ONNXConfig struct {
	// ModelPath is the .onnx file.
	ModelPath string
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default name.
	LibraryPath string

	InputName   string
	OutputName  string
	InputShape  []int64
	OutputShape []int64
}

// ONNXModel runs inference through an onnxruntime session with
// preallocated input and output tensors.
type ONNXModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// OpenONNX initializes the onnxruntime environment and creates a session.
// Call Close to release the session and the environment.
func OpenONNX(cfg ONNXConfig) (*ONNXModel, error) {
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	m := &ONNXModel{}
	var err error
	m.input, err = ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	m.output, err = ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape...))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{m.input}, []ort.ArbitraryTensor{m.output},
		nil)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return m, nil
}

// Run copies input into the session's input tensor, runs inference and
// returns a copy of the output tensor.
func (m *ONNXModel) Run(input []float32) ([]float32, error) {
	data := m.input.GetData()
	if len(input) != len(data) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(data))
	}
	copy(data, input)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return append([]float32(nil), m.output.GetData()...), nil
}

// Close destroys the session, the tensors and the environment.
func (m *ONNXModel) Close() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
	ort.DestroyEnvironment()
}
