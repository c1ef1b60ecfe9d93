// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iwatake2222/InferenceHelper/internal/check"
)

var checkCmd = &cobra.Command{
	Use:   "check <outDir>",
	Short: "Run a prepared dataset through an ONNX model",
	Long: `Check feeds every sample listed in <outDir>/list.txt through an ONNX model
with onnxruntime and reports the top class and output range per sample.
Samples whose outputs contain NaN or Inf make the command fail, since they
would poison the calibration statistics.

Each pixel value v becomes (v - mean) * norm per channel. The input tensor
shape is derived from --width, --height, --channels and --layout; pass the
model's output shape with --output-shape.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("model", "", "path to the .onnx model")
	checkCmd.Flags().Int64Slice("output-shape", nil, "model output shape, e.g. 1,1000")
	checkCmd.Flags().String("input-name", "input", "model input tensor name")
	checkCmd.Flags().String("output-name", "output", "model output tensor name")
	checkCmd.Flags().String("ort-lib", "", "path to the onnxruntime shared library")
	checkCmd.Flags().String("layout", string(check.LayoutNCHW), "input layout: nchw or nhwc")
	checkCmd.Flags().Int("channels", 3, "input channels: 1 or 3")
	checkCmd.Flags().Float32Slice("mean", []float32{0, 0, 0}, "per-channel mean subtracted from 0-255 pixel values")
	checkCmd.Flags().Float32Slice("norm", []float32{1.0 / 255, 1.0 / 255, 1.0 / 255}, "per-channel scale applied after mean")
	checkCmd.Flags().String("format", "yaml", "report format: yaml or json")
	_ = checkCmd.MarkFlagRequired("model")
	_ = checkCmd.MarkFlagRequired("output-shape")

	_ = viper.BindPFlag("ort-lib", checkCmd.Flags().Lookup("ort-lib"))

	rootCmd.AddCommand(checkCmd)
}

func checkPreprocess(cmd *cobra.Command) (check.Preprocess, error) {
	layout, _ := cmd.Flags().GetString("layout")
	channels, _ := cmd.Flags().GetInt("channels")
	mean, _ := cmd.Flags().GetFloat32Slice("mean")
	norm, _ := cmd.Flags().GetFloat32Slice("norm")
	if len(mean) != 3 || len(norm) != 3 {
		return check.Preprocess{}, fmt.Errorf("--mean and --norm take exactly 3 values")
	}

	pre := check.Preprocess{
		Width:    viper.GetInt("width"),
		Height:   viper.GetInt("height"),
		Channels: channels,
		Layout:   check.Layout(layout),
	}
	copy(pre.Mean[:], mean)
	copy(pre.Norm[:], norm)
	return pre, pre.Validate()
}

func runCheck(cmd *cobra.Command, args []string) error {
	pre, err := checkPreprocess(cmd)
	if err != nil {
		return err
	}
	modelPath, _ := cmd.Flags().GetString("model")
	outputShape, _ := cmd.Flags().GetInt64Slice("output-shape")
	inputName, _ := cmd.Flags().GetString("input-name")
	outputName, _ := cmd.Flags().GetString("output-name")
	format, _ := cmd.Flags().GetString("format")

	model, err := check.OpenONNX(check.ONNXConfig{
		ModelPath:   modelPath,
		LibraryPath: viper.GetString("ort-lib"),
		InputName:   inputName,
		OutputName:  outputName,
		InputShape:  pre.Shape(),
		OutputShape: outputShape,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	report, err := check.Dir(cmd.Context(), args[0], modelPath, model, pre)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), format); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d sample(s) produced non-finite outputs", report.Failed)
	}
	return nil
}
