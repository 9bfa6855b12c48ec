// Package audio groups the audio sub-packages used by nanonanoda:
//
//   - pcm: mono float sample buffers and conversions
//   - wav: WAV decoding and encoding
//   - codec/mp3: MP3 decoding
//   - resampler: sample rate conversion
//
// Example usage:
//
//	f, _ := os.Open("input.wav")
//	buf, err := wav.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf, err = resampler.Resample(buf, 44100)
package audio
