package audio

import (
	"fmt"
	"math"
)

// EncodePCMToMulaw converts linear PCM audio (16-bit signed little-endian)
// to G.711 PCMU (μ-law), resampling if the rates differ.
func EncodePCMToMulaw(pcmData []byte, inputSampleRate, outputSampleRate int) ([]byte, error) {
	if len(pcmData) == 0 {
		return nil, fmt.Errorf("empty PCM data")
	}
	if len(pcmData)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]int16, len(pcmData)/2)
	for i := range samples {
		samples[i] = int16(pcmData[i*2]) | int16(pcmData[i*2+1])<<8
	}

	if inputSampleRate != outputSampleRate {
		samples = Resample(samples, inputSampleRate, outputSampleRate)
	}

	out := make([]byte, len(samples))
	for i, sample := range samples {
		out[i] = linearToMulaw(sample)
	}
	return out, nil
}

// DecodeMulawToPCM converts G.711 PCMU (μ-law) to 16-bit little-endian linear PCM.
func DecodeMulawToPCM(mulawData []byte) ([]byte, error) {
	if len(mulawData) == 0 {
		return nil, fmt.Errorf("empty mulaw data")
	}

	pcm := make([]byte, len(mulawData)*2)
	for i, b := range mulawData {
		sample := mulawToLinear(b)
		pcm[i*2] = byte(sample)
		pcm[i*2+1] = byte(sample >> 8)
	}
	return pcm, nil
}

// Resample performs linear-interpolation resampling between sample rates.
func Resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio
		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}
		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}
	return output
}

// linearToMulaw converts a 16-bit linear PCM sample to 8-bit μ-law
// (ITU-T G.711 encoding).
func linearToMulaw(sample int16) byte {
	const (
		clip = 8159 // 14-bit input range
		bias = 0x21
	)

	var sign byte
	magnitude := int32(sample)
	if sample < 0 {
		sign = 0x80
		magnitude = -magnitude
	}
	if magnitude > clip {
		magnitude = clip
	}
	magnitude += bias

	var segment byte
	switch {
	case magnitude >= 0x1000:
		segment = 7
	case magnitude >= 0x800:
		segment = 6
	case magnitude >= 0x400:
		segment = 5
	case magnitude >= 0x200:
		segment = 4
	case magnitude >= 0x100:
		segment = 3
	case magnitude >= 0x80:
		segment = 2
	case magnitude >= 0x40:
		segment = 1
	default:
		segment = 0
	}

	mantissa := byte((magnitude >> (segment + 1)) & 0x0F)
	return ^(sign | (segment << 4) | mantissa)
}

// mulawToLinear converts an 8-bit μ-law sample to 16-bit linear PCM.
func mulawToLinear(mulawByte byte) int16 {
	mulawByte = ^mulawByte

	sign := mulawByte & 0x80
	segment := int32((mulawByte >> 4) & 0x07)
	mantissa := int32(mulawByte & 0x0F)

	step := mantissa << (segment + 1)
	step += int32(33) << segment
	magnitude := step - 33

	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}

// RMS calculates the root mean square level of audio samples.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
