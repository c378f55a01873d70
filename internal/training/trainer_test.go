package training

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// stubModel is a flat list of single-vector parameters.
type stubModel struct {
	params []*Parameter
}

func (m *stubModel) Parameters() []*Parameter { return m.params }

func newStubModel(t *testing.T, names ...string) *stubModel {
	t.Helper()
	m := &stubModel{}
	for _, name := range names {
		raw, err := tensor.FromFloat32(tensor.Shape{4}, []float32{1, 2, 3, 4})
		require.NoError(t, err)
		m.params = append(m.params, NewParameter(name, raw))
	}
	return m
}

// stubEngine writes gradValue*lossScale into every gradient element,
// accumulating across calls the way a real backward pass does between
// boundaries. ApplyStep records the learning rate and which parameters
// still carried a gradient.
type stubEngine struct {
	model     *stubModel
	gradValue float32

	scalesSeen []float32
	applies    []float32
	gradOwners [][]string

	runErr   error
	applyErr error
}

func (e *stubEngine) RunStep(batch int, lossScale float32) (float32, error) {
	if e.runErr != nil {
		return 0, e.runErr
	}
	e.scalesSeen = append(e.scalesSeen, lossScale)
	for _, p := range e.model.Parameters() {
		g := p.Grad()
		if g == nil {
			var err error
			g, err = tensor.NewRaw(p.Tensor().Shape(), tensor.Float32)
			if err != nil {
				return 0, err
			}
			p.SetGrad(g)
		}
		data := g.AsFloat32()
		for i := range data {
			data[i] += e.gradValue * lossScale
		}
	}
	return 1.5, nil
}

func (e *stubEngine) ApplyStep(lr float32) error {
	if e.applyErr != nil {
		return e.applyErr
	}
	e.applies = append(e.applies, lr)
	var owners []string
	for _, p := range e.model.Parameters() {
		if p.Grad() != nil {
			owners = append(owners, p.Name())
		}
	}
	e.gradOwners = append(e.gradOwners, owners)
	return nil
}

func newStubTrainer(t *testing.T, opts *Options) (*Trainer[int], *stubEngine) {
	t.Helper()
	model := newStubModel(t, "linear1.weight", "linear1.bias")
	engine := &stubEngine{model: model, gradValue: 0.5}
	cfg, err := optim.NewSGD(optim.SGDConfig{LR: 0.01})
	require.NoError(t, err)
	trainer, err := NewTrainer[int](model, engine, cfg, opts)
	require.NoError(t, err)
	return trainer, engine
}

func TestTrainer_FullPrecisionStep(t *testing.T) {
	trainer, engine := newStubTrainer(t, nil)

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.False(t, res.Skipped)
	assert.InDelta(t, 1.5, res.Loss, 1e-6)
	assert.Equal(t, float32(1), res.LossScale)
	assert.Equal(t, float32(0.01), res.LR)
	require.NotNil(t, res.Info)
	assert.Nil(t, res.Info.AllFinite, "full precision runs no finiteness check")

	assert.Equal(t, []float32{1}, engine.scalesSeen)
	assert.Equal(t, []float32{0.01}, engine.applies)

	for _, p := range trainer.model.Parameters() {
		assert.Nil(t, p.Grad(), "gradients cleared after the update")
	}
	assert.Equal(t, Stats{TotalSteps: 1, AppliedSteps: 1}, trainer.Stats())
	assert.Equal(t, 1, trainer.Step())
	assert.Equal(t, 1, trainer.OptimizationStep())
}

func TestTrainer_MixedPrecisionPassesScale(t *testing.T) {
	trainer, engine := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)

	assert.Equal(t, amp.DefaultLossScale, res.LossScale)
	assert.Equal(t, []float32{amp.DefaultLossScale}, engine.scalesSeen)
	require.NotNil(t, res.Info.AllFinite)
	assert.True(t, *res.Info.AllFinite)
	assert.True(t, res.Applied)

	// One stable step is far from the window; scale holds.
	assert.Equal(t, amp.DefaultLossScale, trainer.LossScale())
}

func TestTrainer_OverflowSkipsUpdate(t *testing.T) {
	trainer, engine := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true},
	})
	engine.gradValue = float32(math.Inf(1))

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.False(t, res.Applied)
	require.NotNil(t, res.Info.AllFinite)
	assert.False(t, *res.Info.AllFinite)
	assert.Empty(t, engine.applies, "overflow must not reach the optimizer")

	// The dynamic scaler halves on the overflow verdict.
	assert.Equal(t, amp.DefaultLossScale/2, trainer.LossScale())
	assert.Equal(t, Stats{TotalSteps: 1, SkippedSteps: 1}, trainer.Stats())

	for _, p := range trainer.model.Parameters() {
		assert.Nil(t, p.Grad(), "overflowed gradients discarded")
	}

	// The next step recovers with the smaller scale.
	engine.gradValue = 0.5
	res, err = trainer.TrainStep(0)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, amp.DefaultLossScale/2, res.LossScale)
}

func TestTrainer_ScaleDoublesAfterWindow(t *testing.T) {
	scaler, err := amp.NewDynamicLossScaler(amp.DynamicConfig{
		AutomaticUpdate: true,
		LossScale:       1024,
		UpScaleWindow:   2,
	})
	require.NoError(t, err)

	trainer, _ := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true, LossScaler: scaler},
	})

	_, err = trainer.TrainStep(0)
	require.NoError(t, err)
	assert.Equal(t, float32(1024), trainer.LossScale())

	_, err = trainer.TrainStep(0)
	require.NoError(t, err)
	assert.Equal(t, float32(2048), trainer.LossScale())
}

func TestTrainer_ManualScalerIsNotDriven(t *testing.T) {
	scaler, err := amp.NewDynamicLossScaler(amp.DynamicConfig{
		LossScale:     1024,
		UpScaleWindow: 1,
	})
	require.NoError(t, err)

	trainer, _ := newStubTrainer(t, &Options{
		MixedPrecision: MixedPrecisionOptions{Enabled: true, LossScaler: scaler},
	})

	for i := 0; i < 3; i++ {
		_, err := trainer.TrainStep(0)
		require.NoError(t, err)
	}
	assert.Equal(t, float32(1024), trainer.LossScale(), "manual scaler must not move on its own")
}

func TestTrainer_GradientAccumulation(t *testing.T) {
	trainer, engine := newStubTrainer(t, &Options{
		Batch: BatchOptions{GradientAccumulationSteps: 2},
	})

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)
	assert.False(t, res.Applied, "mid-window step must not update")
	assert.Nil(t, res.Info.AllFinite)
	for _, p := range trainer.model.Parameters() {
		require.NotNil(t, p.Grad(), "mid-window gradients must survive")
	}

	res, err = trainer.TrainStep(1)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Len(t, engine.applies, 1)

	// Two micro steps accumulated into the applied gradient.
	assert.Equal(t, 1, trainer.OptimizationStep())
	assert.Equal(t, 2, trainer.Step())
	assert.Equal(t, Stats{TotalSteps: 2, AppliedSteps: 1}, trainer.Stats())
}

func TestTrainer_SchedulerUsesOptimizerClock(t *testing.T) {
	sched, err := optim.NewLinearWarmup(10, 0.5)
	require.NoError(t, err)

	trainer, engine := newStubTrainer(t, &Options{
		Batch:       BatchOptions{GradientAccumulationSteps: 2},
		LRScheduler: sched,
	})

	// All four micro steps sit in the first two optimizer updates, so the
	// schedule advances once per window, not per micro step.
	wantLR := []float32{0, 0, 0.01 * 0.2, 0.01 * 0.2}
	for i := 0; i < 4; i++ {
		res, err := trainer.TrainStep(i)
		require.NoError(t, err)
		assert.InDelta(t, wantLR[i], res.LR, 1e-7, "step %d", i)
	}
	require.Len(t, engine.applies, 2)
	assert.InDelta(t, 0, engine.applies[0], 1e-7)
	assert.InDelta(t, 0.01*0.2, engine.applies[1], 1e-7)
}

func TestTrainer_GradNormClip(t *testing.T) {
	trainer, engine := newStubTrainer(t, &Options{
		Utils: UtilsOptions{GradNormClip: true},
	})
	engine.gradValue = 10 // norm sqrt(8*100) ~ 28.3, well above the limit

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.InDelta(t, 10*math.Sqrt(8), float64(res.GradNorm), 1e-3)
}

func TestTrainer_FrozenWeights(t *testing.T) {
	model := newStubModel(t, "embed.weight", "head.weight")
	engine := &stubEngine{model: model, gradValue: 0.5}
	cfg, err := optim.NewSGD(optim.SGDConfig{})
	require.NoError(t, err)

	trainer, err := NewTrainer[int](model, engine, cfg, &Options{
		Utils: UtilsOptions{FrozenWeights: []string{"embed.weight"}},
	})
	require.NoError(t, err)

	_, err = trainer.TrainStep(0)
	require.NoError(t, err)

	require.Len(t, engine.gradOwners, 1)
	assert.Equal(t, []string{"head.weight"}, engine.gradOwners[0],
		"frozen gradients dropped before the update")
}

func TestNewTrainer_Validation(t *testing.T) {
	model := newStubModel(t, "w")
	engine := &stubEngine{model: model}
	cfg, err := optim.NewSGD(optim.SGDConfig{})
	require.NoError(t, err)

	_, err = NewTrainer[int](nil, engine, cfg, nil)
	assert.Error(t, err)

	_, err = NewTrainer[int](model, nil, cfg, nil)
	assert.Error(t, err)

	_, err = NewTrainer[int](model, engine, nil, nil)
	assert.Error(t, err)

	_, err = NewTrainer[int](model, engine, cfg, &Options{
		Batch: BatchOptions{GradientAccumulationSteps: -1},
	})
	assert.Error(t, err)

	_, err = NewTrainer[int](model, engine, cfg, &Options{
		Utils: UtilsOptions{FrozenWeights: []string{"no.such.param"}},
	})
	assert.ErrorContains(t, err, "frozen weight")

	_, err = NewTrainer[int](model, engine, cfg, &Options{
		Utils: UtilsOptions{FrozenWeights: []string{"w"}},
	})
	assert.ErrorContains(t, err, "frozen")
}

func TestTrainer_EngineErrors(t *testing.T) {
	trainer, engine := newStubTrainer(t, nil)

	wantErr := errors.New("device lost")
	engine.runErr = wantErr
	_, err := trainer.TrainStep(0)
	assert.ErrorIs(t, err, wantErr)

	engine.runErr = nil
	engine.applyErr = wantErr
	_, err = trainer.TrainStep(0)
	assert.ErrorIs(t, err, wantErr)
}

func TestTrainer_EndEpoch(t *testing.T) {
	trainer, _ := newStubTrainer(t, nil)

	_, err := trainer.TrainStep(0)
	require.NoError(t, err)
	trainer.EndEpoch()

	res, err := trainer.TrainStep(0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Info.Epoch)
	assert.Equal(t, 1, res.Info.Step, "step counter keeps running across epochs")
	assert.Equal(t, 1, trainer.Epoch())
}

func TestTrainer_RunID(t *testing.T) {
	t1, _ := newStubTrainer(t, nil)
	t2, _ := newStubTrainer(t, nil)

	assert.NotEmpty(t, t1.RunID())
	assert.NotEqual(t, t1.RunID(), t2.RunID())
}
