package mediacodec

import (
	"encoding/binary"
	"fmt"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Float32ToPCM16LE は正規化済みサンプル（-1.0〜1.0）を
// 16bit リトルエンディアン PCM に変換します。範囲外はクランプします。
func Float32ToPCM16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32767.0)
		if s > 1.0 {
			v = 32767
		} else if s < -1.0 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// PCM16LEToFloat32 は 16bit リトルエンディアン PCM を正規化サンプルに戻します。
// 末尾の半端なバイトは無視します。
func PCM16LEToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// PCMDuration は 16bit モノラル PCM の再生時間を返します。
func PCMDuration(byteLen, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(byteLen/2) * time.Second / time.Duration(sampleRate)
}

// ResamplePCM16 は 16bit モノラル PCM のサンプルレートを変換し、
// 再生可能なバッファに整えます。同一レートの場合は入力をそのまま返します。
func ResamplePCM16(pcm []byte, srcRate, dstRate int) ([]byte, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("不正なサンプルレート: src=%d dst=%d", srcRate, dstRate)
	}
	if srcRate == dstRate {
		return pcm, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("リサンプラー初期化失敗: %w", err)
	}

	n := len(pcm) / 2
	input := make([]float64, n)
	for i := 0; i < n; i++ {
		input[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("リサンプル失敗: %w", err)
	}

	out := make([]byte, len(output)*2)
	for i, s := range output {
		v := int16(s * 32767.0)
		if s > 1.0 {
			v = 32767
		} else if s < -1.0 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out, nil
}

// WAVFromPCM16 は 16bit モノラル PCM に RIFF/WAVE ヘッダーを付けて返します。
func WAVFromPCM16(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	buf := make([]byte, 0, 44+len(pcm))
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(pcm)))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, numChannels)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, bitsPerSample)
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pcm)))
	buf = append(buf, pcm...)
	return buf
}

// PCM16FromWAV は RIFF/WAVE から 16bit PCM 本体とサンプルレートを取り出します。
// リニア PCM 以外のフォーマットはエラーになります。
func PCM16FromWAV(data []byte) (pcm []byte, sampleRate int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("WAVEファイルではありません")
	}

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("チャンク %q がデータ末尾を超えています", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmtチャンクが短すぎます")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if format != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("16bitリニアPCMのみ対応しています (format=%d, bits=%d)", format, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
		case "data":
			pcm = data[body : body+size]
		}
		// チャンクは2バイト境界に揃う
		if size%2 == 1 {
			size++
		}
		pos = body + size
	}

	if sampleRate == 0 || pcm == nil {
		return nil, 0, fmt.Errorf("fmtまたはdataチャンクが見つかりません")
	}
	return pcm, sampleRate, nil
}
