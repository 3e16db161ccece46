package kafka

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInboxFull(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "sales.orders", 1, zerolog.Nop())

	require.NoError(t, p.Publish([]byte("1"), []byte("a")))
	assert.ErrorIs(t, p.Publish([]byte("1"), []byte("b")), ErrInboxFull)
}

func TestPublishAfterClose(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "sales.orders", 4, zerolog.Nop())
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Publish([]byte("1"), []byte("a")), ErrClosed)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish([]byte("k"), []byte("v")))
}

func TestMustMarshal(t *testing.T) {
	assert.JSONEq(t, `{"order_id":42}`, string(MustMarshal(map[string]int{"order_id": 42})))
	assert.Panics(t, func() { MustMarshal(make(chan int)) })
}
