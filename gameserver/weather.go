// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	perlin "github.com/aquilax/go-perlin"
)

// weatherStateCount is the number of discrete S2C_TimeSync weather
// states the noise field is quantized into.
const weatherStateCount = 4

// weatherDrift turns a Perlin noise generator
// (github.com/aquilax/go-perlin) into a smooth
// weather-state drift over time-of-day: the same noise primitive used
// for terrain generation is repointed at this ambient system instead.
type weatherDrift struct {
	noise *perlin.Perlin
	t     float64
}

func newWeatherDrift(seed int64) *weatherDrift {
	return &weatherDrift{noise: perlin.NewPerlin(2, 2, 3, seed)}
}

// Advance steps the underlying noise field by dt seconds of elapsed
// time-of-day progression and returns the current weather state.
func (w *weatherDrift) Advance(dt float64) int32 {
	w.t += dt
	n := w.noise.Noise1D(w.t) // roughly [-1, 1]
	bucket := int32((n + 1) / 2 * weatherStateCount)
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= weatherStateCount {
		bucket = weatherStateCount - 1
	}
	return bucket
}
