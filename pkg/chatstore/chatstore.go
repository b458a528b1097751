// Package chatstore はチャット履歴の永続化層です。
// 組み込みの BadgerDB に履歴全体を1キーで保存します。
package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// historyKey は履歴を格納する固定キーです。
const historyKey = "chat_history"

// DefaultGreeting は履歴が空・破損しているときに使う初期メッセージです。
const DefaultGreeting = "こんにちは！AIファッションスタジオへようこそ。服の画像やスタイルの説明から、あなただけのルックブックを作りましょう。"

// Store は BadgerDB によるチャット履歴ストアです。
type Store struct {
	db       *badger.DB
	greeting string
}

// Open は path にデータベースを開いて Store を返します。
// greeting が空の場合は DefaultGreeting を使います。
func Open(path, greeting string) (*Store, error) {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("チャット履歴データベースを開けませんでした: %w", err)
	}
	return &Store{db: db, greeting: greeting}, nil
}

// Close はデータベースを閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}

// Load は保存済みの履歴を返します。キーが存在しない、読めない、
// あるいは空の履歴しか残っていない場合は、挨拶1件から始まる
// 初期履歴を返します。破損した保存データでエラーにはしません。
func (s *Store) Load() ([]domain.ChatMessage, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("チャット履歴の読み込みに失敗しました: %w", err)
		}
		return s.initialHistory(), nil
	}

	var history []domain.ChatMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		slog.Warn("チャット履歴が破損していたため初期化します", "error", err)
		return s.initialHistory(), nil
	}
	if len(history) == 0 {
		return s.initialHistory(), nil
	}
	return history, nil
}

// Save は履歴全体を保存します。毎回全置換です。
func (s *Store) Save(history []domain.ChatMessage) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("チャット履歴のシリアライズに失敗しました: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyKey), raw)
	})
	if err != nil {
		return fmt.Errorf("チャット履歴の保存に失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みの履歴を削除します。次の Load は初期履歴を返します。
func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(historyKey))
	})
	if err != nil {
		return fmt.Errorf("チャット履歴の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Store) initialHistory() []domain.ChatMessage {
	return []domain.ChatMessage{{Sender: domain.SenderModel, Text: s.greeting}}
}
