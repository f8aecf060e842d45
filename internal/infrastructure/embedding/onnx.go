package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/pkg/vecmath"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortMu      sync.Mutex
	ortStarted bool
)

// OnnxModel — sentence-transformer в ONNX Runtime с mean pooling по attention mask.
type OnnxModel struct {
	session   *ort.DynamicAdvancedSession
	tk        *tokenizer.Tokenizer
	dim       int
	maxSeqLen int
}

// OnnxLoader возвращает Loader для локальной модели.
func OnnxLoader(c *cfg.OnnxCfg, dim int) Loader {
	return func(_ context.Context) (Model, error) {
		return NewOnnxModel(c, dim)
	}
}

func NewOnnxModel(c *cfg.OnnxCfg, dim int) (*OnnxModel, error) {
	if err := initEnvironment(c.SharedLibraryPath); err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(c.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", c.TokenizerPath, err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		c.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{c.OutputName},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session %s: %w", c.ModelPath, err)
	}

	return &OnnxModel{
		session:   session,
		tk:        tk,
		dim:       dim,
		maxSeqLen: c.MaxSeqLen,
	}, nil
}

func initEnvironment(libPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ortStarted {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnxruntime: %w", err)
	}
	ortStarted = true
	return nil
}

func (m *OnnxModel) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, err := m.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	ids := truncate(toInt64(enc.Ids), m.maxSeqLen)
	mask := truncate(toInt64(enc.AttentionMask), m.maxSeqLen)
	types := truncate(toInt64(enc.TypeIds), m.maxSeqLen)
	if len(types) != len(ids) {
		types = make([]int64, len(ids))
	}
	seqLen := int64(len(ids))
	if seqLen == 0 {
		return nil, fmt.Errorf("tokenizer produced no tokens")
	}

	shape := ort.NewShape(1, seqLen)
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()

	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()

	typesT, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, err
	}
	defer typesT.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(m.dim)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{idsT, maskT, typesT}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return vecmath.MeanPool(out.GetData(), mask, m.dim), nil
}

func (m *OnnxModel) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

// truncate обрезает последовательность, сохраняя последний (служебный) токен.
func truncate(seq []int64, max int) []int64 {
	if max <= 1 || len(seq) <= max {
		return seq
	}
	out := make([]int64, max)
	copy(out, seq[:max-1])
	out[max-1] = seq[len(seq)-1]
	return out
}
