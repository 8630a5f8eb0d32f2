package bcursor

import "math"

func math32frombits(v uint32) float32 {
	return math.Float32frombits(v)
}
