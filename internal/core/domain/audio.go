package domain

// Audio is a synthesized narration clip.
type Audio struct {
	Data        []byte
	ContentType string
}

func (a *Audio) Empty() bool {
	return a == nil || len(a.Data) == 0
}
