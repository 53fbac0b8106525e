package systems

// VectorLogSink records the value on one output port at every simulation
// step. It is attached through DiagramBuilder.LogVectorOutput.
type VectorLogSink struct {
	name  string
	src   OutputPort
	times []float64
	data  []State
}

func newVectorLogSink(src OutputPort) *VectorLogSink {
	return &VectorLogSink{
		name: "logger",
		src:  src,
	}
}

func (v *VectorLogSink) Name() string        { return v.name }
func (v *VectorLogSink) SetName(name string) { v.name = name }

// Source returns the logged output port.
func (v *VectorLogSink) Source() OutputPort { return v.src }

func (v *VectorLogSink) record(t float64, sample State) {
	v.times = append(v.times, t)
	v.data = append(v.data, sample.Clone())
}

func (v *VectorLogSink) reset() {
	v.times = v.times[:0]
	v.data = v.data[:0]
}

// SampleTimes returns the recorded sample times.
func (v *VectorLogSink) SampleTimes() []float64 { return v.times }

// Samples returns one recorded vector per sample time.
func (v *VectorLogSink) Samples() []State { return v.data }

// NumSamples reports how many samples were recorded.
func (v *VectorLogSink) NumSamples() int { return len(v.times) }

// Signal extracts a single channel across all samples.
func (v *VectorLogSink) Signal(index int) []float64 {
	out := make([]float64, len(v.data))
	for i, sample := range v.data {
		if index < len(sample) {
			out[i] = sample[index]
		}
	}
	return out
}
