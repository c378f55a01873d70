package training

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")

	src, engine := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})

	// One clean step, one overflow, one recovery. The overflow halves the
	// scale and lands one skip in the stats.
	_, err := src.TrainStep(0)
	require.NoError(t, err)
	engine.gradValue = float32(math.Inf(1))
	_, err = src.TrainStep(0)
	require.NoError(t, err)
	engine.gradValue = 0.5
	_, err = src.TrainStep(0)
	require.NoError(t, err)
	src.EndEpoch()

	// Give the weights recognizable values so the restore is observable.
	copy(src.model.Parameters()[0].Tensor().AsFloat32(), []float32{9, 8, 7, 6})

	require.NoError(t, SaveCheckpoint(path, src, map[string]string{"dataset": "mnist"}))

	dst, _ := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})
	ckpt, err := LoadCheckpoint(path, dst)
	require.NoError(t, err)

	assert.Equal(t, src.RunID(), ckpt.State.RunID)
	assert.Equal(t, optim.SGDOptimizer, ckpt.State.OptimizerName)
	assert.Equal(t, map[string]string{"dataset": "mnist"}, ckpt.Metadata)

	assert.Equal(t, []float32{9, 8, 7, 6}, dst.model.Parameters()[0].Tensor().AsFloat32())
	assert.Equal(t, 3, dst.Step())
	assert.Equal(t, 2, dst.OptimizationStep())
	assert.Equal(t, 1, dst.Epoch())
	assert.Equal(t, Stats{TotalSteps: 3, AppliedSteps: 2, SkippedSteps: 1}, dst.Stats())

	// Scale halved by the overflow, one stable step since.
	assert.Equal(t, amp.DefaultLossScale/2, dst.LossScale())
	ss, ok := dst.Scaler().(ScalerState)
	require.True(t, ok)
	assert.Equal(t, amp.State{LossScale: amp.DefaultLossScale / 2, StableSteps: 1}, ss.State())

	// The restored session keeps counting from where the source stopped.
	res, err := dst.TrainStep(0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Info.Step)
	assert.Equal(t, 1, res.Info.Epoch)
}

func TestSaveCheckpointMidWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")
	trainer, _ := newStubTrainer(t, &Options{
		Batch: BatchOptions{GradientAccumulationSteps: 2},
	})

	_, err := trainer.TrainStep(0)
	require.NoError(t, err)

	err = SaveCheckpoint(path, trainer, nil)
	assert.ErrorContains(t, err, "accumulation window")

	// The boundary step closes the window and unblocks the save.
	_, err = trainer.TrainStep(0)
	require.NoError(t, err)
	assert.NoError(t, SaveCheckpoint(path, trainer, nil))
}

func TestLoadCheckpointShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")
	src, _ := newStubTrainer(t, nil)
	require.NoError(t, SaveCheckpoint(path, src, nil))

	model := &stubModel{}
	raw, err := tensor.FromFloat32(tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	model.params = append(model.params, NewParameter("linear1.weight", raw))
	raw, err = tensor.FromFloat32(tensor.Shape{4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	model.params = append(model.params, NewParameter("linear1.bias", raw))

	cfg, err := optim.NewSGD(optim.SGDConfig{})
	require.NoError(t, err)
	dst, err := NewTrainer[int](model, &stubEngine{model: model}, cfg, nil)
	require.NoError(t, err)

	_, err = LoadCheckpoint(path, dst)
	assert.ErrorContains(t, err, "linear1.weight")
}

func TestLoadCheckpointParamMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")
	src, _ := newStubTrainer(t, nil)
	require.NoError(t, SaveCheckpoint(path, src, nil))

	model := newStubModel(t, "linear1.weight", "linear2.bias")
	cfg, err := optim.NewSGD(optim.SGDConfig{})
	require.NoError(t, err)
	dst, err := NewTrainer[int](model, &stubEngine{model: model}, cfg, nil)
	require.NoError(t, err)

	_, err = LoadCheckpoint(path, dst)
	assert.ErrorContains(t, err, "linear2.bias")

	small := newStubModel(t, "linear1.weight")
	dst, err = NewTrainer[int](small, &stubEngine{model: small}, cfg, nil)
	require.NoError(t, err)

	_, err = LoadCheckpoint(path, dst)
	assert.ErrorContains(t, err, "2 tensors")
}

func TestLoadCheckpointBareStateDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.kiln")

	raw, err := tensor.FromFloat32(tensor.Shape{4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	stateDict := map[string]*tensor.RawTensor{
		"linear1.weight": raw,
		"linear1.bias":   raw,
	}
	require.NoError(t, serialization.WriteFile(path, stateDict, nil))

	dst, _ := newStubTrainer(t, nil)
	_, err = LoadCheckpoint(path, dst)
	assert.ErrorContains(t, err, "no training state")
}

func TestLoadCheckpointPrecisionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")
	src, _ := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})
	require.NoError(t, SaveCheckpoint(path, src, nil))

	// Mixed precision state cannot land in a full precision session.
	dst, _ := newStubTrainer(t, nil)
	_, err := LoadCheckpoint(path, dst)
	assert.ErrorContains(t, err, "mixed precision is disabled")
}

func TestLoadCheckpointFullPrecisionIntoMixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.kiln")
	src, _ := newStubTrainer(t, nil)
	_, err := src.TrainStep(0)
	require.NoError(t, err)
	require.NoError(t, SaveCheckpoint(path, src, nil))

	// The file has no scale state, so the destination scaler keeps its own.
	dst, _ := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})
	ckpt, err := LoadCheckpoint(path, dst)
	require.NoError(t, err)
	assert.False(t, ckpt.State.MixedPrecision)
	assert.Equal(t, amp.DefaultLossScale, dst.LossScale())
	assert.Equal(t, 1, dst.Step())
}
