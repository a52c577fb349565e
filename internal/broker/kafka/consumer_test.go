package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed []int64
	closeErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return r.closeErr }

type ctxKey struct{}

func TestConsumer_Consume_PassesContextAndCommits(t *testing.T) {
	stop := errors.New("stop")
	fr := &fakeReader{
		msgs: []kafka.Message{
			{Key: []byte("pkg-1"), Value: []byte(`{"kind":"created"}`), Offset: 7},
			{Key: []byte("pkg-2"), Value: []byte(`{"kind":"deleted"}`), Offset: 8},
		},
		err: stop,
	}
	c := newConsumerWithReader(fr)

	ctx := context.WithValue(context.Background(), ctxKey{}, "worker")
	var keys []string
	err := c.Consume(ctx, func(hctx context.Context, key, value []byte) error {
		require.Equal(t, "worker", hctx.Value(ctxKey{}))
		keys = append(keys, string(key))
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Contains(t, err.Error(), "fetch package change")
	require.Equal(t, []string{"pkg-1", "pkg-2"}, keys)
	require.Equal(t, []int64{7, 8}, fr.committed)
}

func TestConsumer_Consume_HandlerErrorLeavesMessageUncommitted(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{{Key: []byte("pkg-1"), Offset: 3}}}
	c := newConsumerWithReader(fr)

	want := errors.New("handler failed")
	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return want })
	require.ErrorIs(t, err, want)
	require.Contains(t, err.Error(), "offset=3")
	require.Empty(t, fr.committed)
}

func TestConsumer_Close(t *testing.T) {
	require.NoError(t, newConsumerWithReader(&fakeReader{}).Close())

	boom := errors.New("boom")
	err := newConsumerWithReader(&fakeReader{closeErr: boom}).Close()
	require.ErrorIs(t, err, boom)
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer([]string{"localhost:0"}, "package.changed", "portal-worker")
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
