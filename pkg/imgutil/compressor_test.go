package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// テスト用のダミー画像（単色の矩形）を作成するヘルパー
func createDummyImageData(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}

	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("正常なPNG画像をJPEGに圧縮できること", func(t *testing.T) {
		pngData := createDummyImageData(t, "png", 10, 10)

		got, err := CompressToJPEG(pngData, 75)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(got) == 0 {
			t.Error("expected output data, but got empty")
		}

		// 出力がJPEGとしてデコード可能か確認
		_, format, err := image.Decode(bytes.NewReader(got))
		if err != nil {
			t.Errorf("failed to decode output image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("expected format jpeg, got %s", format)
		}
	})

	t.Run("不正なデータを与えた場合にエラーを返すこと", func(t *testing.T) {
		invalidData := []byte("this is not an image")
		_, err := CompressToJPEG(invalidData, 75)
		if err == nil {
			t.Error("expected error for invalid data, but got nil")
		}
	})
}

func TestResizeToFit(t *testing.T) {
	t.Run("長辺が上限を超える画像はアスペクト比を保って縮小されること", func(t *testing.T) {
		src := createDummyImageData(t, "png", 200, 100)

		got, err := ResizeToFit(src, 64, 90)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		img, format, err := image.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("failed to decode output image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("expected format jpeg, got %s", format)
		}
		b := img.Bounds()
		if b.Dx() != 64 || b.Dy() != 32 {
			t.Errorf("expected 64x32, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("上限以内の画像は入力がそのまま返ること", func(t *testing.T) {
		src := createDummyImageData(t, "jpeg", 30, 40)

		got, err := ResizeToFit(src, 64, 90)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(src, got) {
			t.Error("image within bounds should be returned unchanged")
		}
	})

	t.Run("縦長画像でも長辺基準で縮小されること", func(t *testing.T) {
		src := createDummyImageData(t, "png", 50, 200)

		got, err := ResizeToFit(src, 100, 90)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		img, _, err := image.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("failed to decode output image: %v", err)
		}
		b := img.Bounds()
		if b.Dy() != 100 || b.Dx() != 25 {
			t.Errorf("expected 25x100, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("デコードできないデータはエラーを返すこと", func(t *testing.T) {
		_, err := ResizeToFit([]byte("broken"), 1024, 90)
		if err == nil {
			t.Error("expected error for invalid data, but got nil")
		}
	})
}
