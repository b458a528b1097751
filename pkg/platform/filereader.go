package platform

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// FileReader はローカルファイルシステムによる remoteio.InputReader の実装です。
// file:// スキームと素のパスの両方を受け付けます。
type FileReader struct{}

var _ remoteio.InputReader = (*FileReader)(nil)

// NewFileReader は FileReader を初期化します。
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Open は URI が指すファイルを開きます。
func (r *FileReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(localPath(uri))
	if err != nil {
		return nil, fmt.Errorf("ファイルを開けませんでした: %w", err)
	}
	return f, nil
}

// List は URI が指すディレクトリ以下のファイルパスを fn に渡します。
func (r *FileReader) List(ctx context.Context, uri string, fn func(string) error) error {
	root := localPath(uri)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		return fn(path)
	})
}

func localPath(uri string) string {
	if after, ok := strings.CutPrefix(uri, "file://"); ok {
		return after
	}
	return uri
}
