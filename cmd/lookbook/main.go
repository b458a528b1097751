// Package main は AI ファッションスタジオ CLI のエントリポイントです。
//
// Usage:
//
//	lookbook <command> [flags]
//
// Commands:
//
//	generate - ルックブックの生成
//	edit     - 生成済み画像の編集
//	chat     - スタイリスト AI とのチャット
//	speak    - テキストの音声合成
//	live     - 音声会話セッション
package main

import (
	"fmt"
	"os"

	"github.com/shouni/gemini-lookbook-kit/cmd/lookbook/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
