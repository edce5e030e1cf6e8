package types

type UISnapshot struct {
	Type   string       `json:"type"`
	Tensor TensorResult `json:"tensor"`
}
