// Package intake はユーザー提供の画像（ファイルまたはURL）を検証・縮小し、
// トランスポート可能な ImageAsset に正規化します。
package intake

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/imgutil"
)

const (
	// MaxDimension は長辺の上限です。これを超える画像は縮小されます。
	MaxDimension = 1024
	// JPEGQuality は縮小時の再エンコード品質（固定）です。
	JPEGQuality = 90
)

// Intake は画像取り込みの窓口です。リモート取得の実装は注入されます。
type Intake struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
}

// New は依存関係を注入して Intake を初期化します。
func New(httpClient httpkit.ClientInterface, reader remoteio.InputReader) (*Intake, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &Intake{httpClient: httpClient, reader: reader}, nil
}

// FromURL はリモートURLから画像を取得して正規化します。
// http(s) のほか、reader がサポートするスキーム（gs:// 等）を受け付けます。
func (in *Intake) FromURL(ctx context.Context, rawURL string) (*domain.ImageAsset, error) {
	data, err := in.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return in.FromBytes(data)
}

// FromFile はローカルファイルから画像を読み込んで正規化します。
func (in *Intake) FromFile(path string) (*domain.ImageAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetch, "画像ファイルを読み込めませんでした", err)
	}
	return in.FromBytes(data)
}

// FromBytes は生バイナリを検証・縮小してトランスポート可能な ImageAsset にします。
// 画像以外のコンテンツタイプは拒否し、長辺が MaxDimension を超える画像は
// アスペクト比を保ったまま JPEGQuality で再エンコードします。
func (in *Intake) FromBytes(data []byte) (*domain.ImageAsset, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, apperr.New(apperr.KindValidation, "画像ではないコンテンツタイプです").WithDetail(mimeType)
	}

	normalized, err := imgutil.ResizeToFit(data, MaxDimension, JPEGQuality)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindImageDecode, "画像をデコードできませんでした", err)
	}

	return &domain.ImageAsset{
		Data:     normalized,
		MimeType: http.DetectContentType(normalized),
	}, nil
}

func (in *Intake) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") || strings.HasPrefix(rawURL, "file://") {
		rc, err := in.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindFetch, "リモートストレージから取得できませんでした", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindFetch, "リモートストレージの読み込みに失敗しました", err)
		}
		return data, nil
	}

	// ブロックされたネットワークは一般的な取得失敗と区別して、
	// 利用者が対処できるメッセージで返す
	if err := checkFetchableURL(rawURL); err != nil {
		return nil, apperr.Wrap(apperr.KindFetch,
			"このURLへのアクセスは許可されていません。公開されている http(s) のURLを指定してください", err)
	}

	data, err := in.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetch, "画像のダウンロードに失敗しました", err)
	}
	return data, nil
}

// checkFetchableURL は取り込み対象の URL が公開ネットワーク上の
// http(s) を指していることを確認します。ホスト名は名前解決したうえで、
// 解決先のどれか1つでも内部ネットワークを指していれば拒否します。
func checkFetchableURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("URLを解析できません: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("http(s) 以外のスキームです: %s", u.Scheme)
	}

	host := u.Hostname()
	ips := []net.IP{}
	if ip := net.ParseIP(host); ip != nil {
		ips = append(ips, ip)
	} else {
		ips, err = net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("ホスト名を解決できません: %w", err)
		}
	}
	if len(ips) == 0 {
		return fmt.Errorf("ホスト %s の解決結果が空です", host)
	}

	for _, ip := range ips {
		if isRestrictedIP(ip) {
			return fmt.Errorf("内部ネットワークのアドレスです: %s", ip)
		}
	}
	return nil
}

func isRestrictedIP(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast()
}
