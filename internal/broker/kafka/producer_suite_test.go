package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

// closingWriterMock also satisfies the Close method of *kafka.Writer.
type closingWriterMock struct {
	writerMock
}

func (m *closingWriterMock) Close() error {
	return m.Called().Error(0)
}

type ProducerSuite struct {
	suite.Suite
	wm *writerMock
	p  *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.wm = &writerMock{}
	s.p = newProducerWithWriter(s.wm)
}

func (s *ProducerSuite) TestNewProducer_HashBalancedWriter() {
	p := NewProducer([]string{"localhost:0"})
	w, ok := p.w.(*kafka.Writer)
	s.Require().True(ok)
	s.Require().IsType(&kafka.Hash{}, w.Balancer)
	s.Require().True(w.AllowAutoTopicCreation)
	s.Require().NoError(p.Close())
}

func (s *ProducerSuite) TestHashBalancer_SameTrackingCodeSamePartition() {
	partitions := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := &kafka.Hash{}
	first := b.Balance(kafka.Message{Key: []byte("CLAKK043K90J")}, partitions...)
	for i := 0; i < 5; i++ {
		s.Require().Equal(first, b.Balance(kafka.Message{Key: []byte("CLAKK043K90J")}, partitions...))
	}
}

func (s *ProducerSuite) TestPublish_KeyedByTrackingCode() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			return msgs[0].Topic == "package.changed" &&
				string(msgs[0].Key) == "CLAKK043K90J" &&
				string(msgs[0].Value) == `{"kind":"created"}`
		})).
		Return(nil).
		Once()

	err := s.p.Publish(context.Background(), "package.changed", []byte("CLAKK043K90J"), []byte(`{"kind":"created"}`))
	s.Require().NoError(err)
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublish_ErrorWrapped() {
	want := errors.New("boom")
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).Return(want).Once()

	err := s.p.Publish(context.Background(), "package.changed", []byte("k"), []byte("v"))
	s.Require().ErrorIs(err, want)
	s.Require().Contains(err.Error(), "kafka publish")
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestClose_WriterWithoutClose() {
	s.Require().NoError(s.p.Close())
}

func (s *ProducerSuite) TestClose_ClosesWriter() {
	cw := &closingWriterMock{}
	cw.On("Close").Return(errors.New("flush failed")).Once()

	err := newProducerWithWriter(cw).Close()
	s.Require().EqualError(err, "flush failed")
	cw.AssertExpectations(s.T())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
