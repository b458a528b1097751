package chatstore

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoad_EmptyReturnsGreeting(t *testing.T) {
	store := newTestStore(t)

	history, err := store.Load()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SenderModel, history[0].Sender)
	assert.Equal(t, DefaultGreeting, history[0].Text)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := []domain.ChatMessage{
		{Sender: domain.SenderModel, Text: "こんにちは"},
		{Sender: domain.SenderUser, Text: "秋物のコートを探しています"},
		{
			Sender: domain.SenderModel,
			Text:   "ウールのチェスターコートはいかがでしょう。",
			GroundingChunks: []domain.GroundingChunk{
				{Web: &domain.GroundingWeb{URI: "https://example.com/coat", Title: "Coat Trends"}},
			},
		},
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, saved[1].Text, loaded[1].Text)
	require.Len(t, loaded[2].GroundingChunks, 1)
	assert.Equal(t, "https://example.com/coat", loaded[2].GroundingChunks[0].Web.URI)
}

func TestLoad_CorruptDataFallsBack(t *testing.T) {
	store := newTestStore(t)

	// 履歴キーに不正な JSON を直接書き込む
	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyKey), []byte("{not json"))
	})
	require.NoError(t, err)

	history, err := store.Load()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, DefaultGreeting, history[0].Text)
}

func TestLoad_EmptySliceFallsBack(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]domain.ChatMessage{}))

	history, err := store.Load()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, DefaultGreeting, history[0].Text)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]domain.ChatMessage{
		{Sender: domain.SenderUser, Text: "消えるはずのメッセージ"},
	}))
	require.NoError(t, store.Clear())

	history, err := store.Load()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, DefaultGreeting, history[0].Text)
}

func TestOpen_CustomGreeting(t *testing.T) {
	store, err := Open(t.TempDir(), "いらっしゃいませ")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	history, err := store.Load()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "いらっしゃいませ", history[0].Text)
}
